// Package render turns scenes into encoded video: one motion-effect segment
// per scene image, concatenated and muxed with the audio track, with optional
// burned-in subtitles.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"scenecast/config"
	"scenecast/faults"
	"scenecast/motion"
	"scenecast/scenes"
)

// Method selects the scene render strategy.
type Method string

const (
	// MethodLanczos2x upscales 2x with Lanczos resampling before the zoom
	// and downscales with Lanczos after. Roughly 3x faster than the 6x
	// baseline at comparable smoothness; the default.
	MethodLanczos2x Method = "lanczos2x"
	// MethodUpscale6x is the legacy baseline: 6x upscale with the default
	// scaler, zoom at 6x resolution, downscale. Slow but known-smooth.
	MethodUpscale6x Method = "upscale6x"
)

// ParseMethod maps a request string to a Method, defaulting to lanczos2x.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MethodLanczos2x):
		return MethodLanczos2x, nil
	case string(MethodUpscale6x):
		return MethodUpscale6x, nil
	}
	return "", &faults.ValidationError{Message: fmt.Sprintf("unknown render method %q", s)}
}

// ParseFamily maps a request effect type to a motion family, defaulting to
// the zoom family.
func ParseFamily(s string) (motion.Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(motion.FamilyZoom):
		return motion.FamilyZoom, nil
	case string(motion.FamilyPan):
		return motion.FamilyPan, nil
	}
	return "", &faults.ValidationError{Message: fmt.Sprintf("unknown effect type %q", s)}
}

// ValidateScenes fails fast when any scene lacks an image URL, enumerating
// the offending indices. No partial video is ever produced from an
// incomplete scene list.
func ValidateScenes(scs []scenes.Scene) error {
	if len(scs) == 0 {
		return &faults.ValidationError{Message: "no scenes provided"}
	}
	if missing := scenes.MissingImageIndices(scs); len(missing) > 0 {
		return &faults.ValidationError{Message: "scenes missing image URLs", SceneIndices: missing}
	}
	return nil
}

// SceneFilter builds the complete -vf chain for one scene segment: fill the
// target frame, upscale, zoompan with the plan's expressions, downscale.
// Zoompan quantizes crop origins to integer pixels, so running it at an
// upscaled resolution is what keeps slow zooms from stuttering.
func SceneFilter(plan motion.Plan, method Method) string {
	w, h := plan.Width, plan.Height
	z, x, y := plan.ZoompanExprs()

	fill := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", w, h, w, h)

	var factor int
	var flags string
	switch method {
	case MethodUpscale6x:
		factor = 6
	default:
		factor = 2
		flags = ":flags=lanczos"
	}
	sw, sh := w*factor, h*factor

	up := fmt.Sprintf("scale=%d:%d%s", sw, sh, flags)
	zoompan := fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d",
		z, x, y, plan.TotalFrames, sw, sh, plan.Framerate)
	down := fmt.Sprintf("scale=%d:%d%s", w, h, flags)

	return strings.Join([]string{fill, up, zoompan, down}, ",")
}

// RenderSceneSegment encodes one still image into a motion-effect video
// segment of the given duration.
func RenderSceneSegment(imagePath, outputPath string, plan motion.Plan, method Method, duration float64) error {
	filter := SceneFilter(plan, method)

	err := ffmpeg.Input(imagePath, ffmpeg.KwArgs{"loop": "1"}).
		Output(outputPath, ffmpeg.KwArgs{
			"vf":     filter,
			"c:v":    config.VideoCodec,
			"preset": config.SegmentPreset,
			"crf":    "23",
			"t":      fmt.Sprintf("%.3f", duration),
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return &faults.RenderError{Stage: "scene segment", Err: err}
	}
	return nil
}

// WriteConcatFile writes the ffmpeg concat-demuxer list for n scene segments
// under segmentsDir and returns its path.
func WriteConcatFile(workDir, segmentsDir string, n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "file '%s'\n", filepath.Join(segmentsDir, fmt.Sprintf("segment_%d.mp4", i)))
	}

	concatPath := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(concatPath, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return concatPath, nil
}

// SegmentPath returns the output path for scene i's rendered segment.
func SegmentPath(segmentsDir string, i int) string {
	return filepath.Join(segmentsDir, fmt.Sprintf("segment_%d.mp4", i))
}

// Mux concatenates the scene segments, muxes in the audio track, and burns
// in the ASS subtitles when assPath is non-empty.
func Mux(concatPath, audioPath, assPath, outputPath string) error {
	video := ffmpeg.Input(concatPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"})
	audio := ffmpeg.Input(audioPath)

	stream := video
	if assPath != "" {
		escaped := strings.ReplaceAll(filepath.ToSlash(assPath), ":", "\\:")
		stream = ffmpeg.Filter([]*ffmpeg.Stream{video}, "ass", ffmpeg.Args{escaped})
	}

	err := ffmpeg.Output([]*ffmpeg.Stream{stream, audio}, outputPath, ffmpeg.KwArgs{
		"c:v":      config.VideoCodec,
		"c:a":      config.AudioCodec,
		"b:a":      config.AudioBitrate,
		"preset":   config.MuxPreset,
		"crf":      "28",
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
		"shortest": "",
	}).OverWriteOutput().Run()
	if err != nil {
		return &faults.RenderError{Stage: "concat/mux", Err: err}
	}
	return nil
}
