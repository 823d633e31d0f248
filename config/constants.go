package config

import "time"

// Render Pipeline Constants
const (
	// MaxConcurrentScenes limits how many scene segments render in parallel
	MaxConcurrentScenes = 2

	// MaxConcurrentDownloads limits parallel scene image fetches
	MaxConcurrentDownloads = 4

	// MaxVideoDuration is the maximum allowed narration length in seconds
	MaxVideoDuration = 1800.0
)

// Video Output Constants
const (
	// VideoCodec is the video encoding codec
	VideoCodec = "libx264"

	// AudioCodec is the audio encoding codec
	AudioCodec = "aac"

	// AudioBitrate is the audio quality bitrate
	AudioBitrate = "192k"

	// SegmentPreset is the ffmpeg preset for per-scene segments; they are
	// re-encoded at mux time so speed wins over size here
	SegmentPreset = "ultrafast"

	// MuxPreset is the ffmpeg preset for the final mux
	MuxPreset = "medium"
)

// Scratch Space Constants
const (
	// ScratchRetention is how long finished work directories linger before
	// the sweeper removes them
	ScratchRetention = 72 * time.Hour

	// SweepInterval is how often the scratch sweeper runs
	SweepInterval = 6 * time.Hour
)

// Upstream Polling Constants
const (
	// PollInterval between async prediction status checks
	PollInterval = 2 * time.Second

	// MaxPollAttempts bounds one prediction's total wait (5 minutes)
	MaxPollAttempts = 150
)
