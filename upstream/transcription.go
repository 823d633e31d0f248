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
	"scenecast/scenes"
)

// TranscriptionClient calls the transcription service: audio URL in, timed
// segments out. The response is authoritative ground truth for segmentation.
type TranscriptionClient struct {
	BaseURL string
	APIKey  string

	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTranscriptionClient creates a client with a requests-per-minute cap so
// bursts of projects do not trip upstream rate limits.
func NewTranscriptionClient(baseURL, apiKey string, requestsPerMinute int) *TranscriptionClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return &TranscriptionClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

// Transcribe submits an audio URL and returns the timed transcript.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audioURL string) (*scenes.TranscriptData, error) {
	payload, err := json.Marshal(map[string]string{"audioUrl": audioURL})
	if err != nil {
		return nil, err
	}

	var result scenes.TranscriptData
	err = withRetry(ctx, "transcription", func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.post(ctx, "/transcribe", payload, &result)
	})
	if err != nil {
		return nil, &faults.UpstreamError{Stage: "transcription", Err: err}
	}
	return &result, nil
}

func (c *TranscriptionClient) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient.Do(req)
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
