package scenes

// TranscriptSegment is one timestamped span of transcribed speech, as
// returned by the transcription service. Segments are consumed read-only and
// are atomic: the segmenter never splits one.
type TranscriptSegment struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// TranscriptData is the transcription service response.
type TranscriptData struct {
	Segments     []TranscriptSegment `json:"segments"`
	LanguageCode string              `json:"languageCode,omitempty"`
}

// Scene is a contiguous span of transcript time mapped to one still image
// and one motion effect. Prompt and ImageURL are attached after segmentation,
// once images have been generated or chosen.
type Scene struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Prompt    string  `json:"prompt,omitempty"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// Duration returns the scene's time span in seconds.
func (s Scene) Duration() float64 {
	return s.EndTime - s.StartTime
}

// MissingImageIndices returns the indices of scenes without an image URL.
// Rendering requires every scene to have one.
func MissingImageIndices(scs []Scene) []int {
	var missing []int
	for i, s := range scs {
		if s.ImageURL == "" {
			missing = append(missing, i)
		}
	}
	return missing
}
