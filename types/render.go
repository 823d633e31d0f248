// Package types holds the request and result shapes shared between the HTTP
// API, the Kafka consumer, and the render job manager.
package types

import "scenecast/scenes"

// VideoSettings are the explicit output parameters of a render. Zero values
// are filled with the documented defaults (25fps, 1920x1080, mp4).
type VideoSettings struct {
	Framerate int    `json:"framerate"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
}

// ApplyDefaults fills unset fields with the documented defaults.
func (v *VideoSettings) ApplyDefaults() {
	if v.Framerate <= 0 {
		v.Framerate = 25
	}
	if v.Width <= 0 {
		v.Width = 1920
	}
	if v.Height <= 0 {
		v.Height = 1080
	}
	if v.Format == "" {
		v.Format = "mp4"
	}
}

// SubtitleSettings control the burned-in subtitle overlay. Position X/Y are
// opaque coordinates set by the caller (typically via drag-and-drop) and are
// handed to the text-draw stage unmodified.
type SubtitleSettings struct {
	Enabled           bool    `json:"enabled"`
	FontFamily        string  `json:"fontFamily"`
	FontSize          int     `json:"fontSize"`
	Color             string  `json:"color"`           // hex, e.g. "#FFFFFF"
	BackgroundColor   string  `json:"backgroundColor"` // hex
	BackgroundOpacity float64 `json:"backgroundOpacity"`
	Shadow            bool    `json:"shadow"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
}

// RenderRequest is one end-to-end video render submission.
type RenderRequest struct {
	ProjectID string            `json:"projectId"`
	UserID    string            `json:"userId"`
	Scenes    []scenes.Scene    `json:"scenes"`
	AudioURL  string            `json:"audioUrl"`
	Video     VideoSettings     `json:"videoSettings"`
	Subtitles *SubtitleSettings `json:"subtitleSettings,omitempty"`
	// EffectType selects the motion family: "zoom" (default) or "pan".
	EffectType string `json:"effectType"`
	// RenderMethod selects the scene render strategy: "lanczos2x" (default)
	// or "upscale6x".
	RenderMethod string `json:"renderMethod"`
}

// RenderResult is what a completed job carries.
type RenderResult struct {
	VideoURL string  `json:"videoUrl"`
	Duration float64 `json:"duration"`
	FileSize int64   `json:"fileSize"`
}
