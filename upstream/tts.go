package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"scenecast/faults"
)

// TTSRequest asks the speech service to synthesize narration audio.
type TTSRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
	Speed   string `json:"speed,omitempty"`
}

// TTSResult carries the rendered audio URL plus per-word timing when the
// provider returns it, which lets callers skip a separate transcription pass.
type TTSResult struct {
	AudioURL string            `json:"audioUrl"`
	Segments []TimedWord       `json:"segments,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TimedWord is one word with its start and end offsets in seconds.
type TimedWord struct {
	Word      string  `json:"word"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// TTSClient calls the text-to-speech service.
type TTSClient struct {
	BaseURL string
	APIKey  string

	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewTTSClient(baseURL, apiKey string, requestsPerMinute int) *TTSClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return &TTSClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

// Synthesize converts text to speech and returns the hosted audio URL.
func (c *TTSClient) Synthesize(ctx context.Context, req TTSRequest) (*TTSResult, error) {
	var result TTSResult
	err := withRetry(ctx, "tts", func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return postJSON(ctx, c.httpClient, c.BaseURL+"/synthesize", c.APIKey, req, &result)
	})
	if err != nil {
		return nil, &faults.UpstreamError{Stage: "speech synthesis", Err: err}
	}
	return &result, nil
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
