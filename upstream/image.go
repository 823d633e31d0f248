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
	"scenecast/jobs"
)

// ImageRequest is one still-image generation request.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	// ReferenceImageURLs optionally steer style; passed through untouched.
	ReferenceImageURLs []string `json:"referenceImageUrls,omitempty"`
	Width              int      `json:"width,omitempty"`
	Height             int      `json:"height,omitempty"`
}

// prediction mirrors the async predict/poll shape exposed by image
// providers: submit yields an id, polling yields a status and eventually an
// output URL.
type prediction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ImageClient calls the image generation service through its asynchronous
// predict/poll API.
type ImageClient struct {
	BaseURL string
	APIKey  string
	// PollInterval between status checks; defaults to 2s.
	PollInterval time.Duration
	// MaxPollAttempts bounds how long one generation may stay in flight.
	MaxPollAttempts int

	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewImageClient(baseURL, apiKey string, requestsPerMinute int) *ImageClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &ImageClient{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		PollInterval:    2 * time.Second,
		MaxPollAttempts: 150,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		limiter:         rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

// Generate submits a prompt and polls until the provider reports the image
// ready, returning its URL.
func (c *ImageClient) Generate(ctx context.Context, req ImageRequest) (string, error) {
	var submitted prediction
	err := withRetry(ctx, "image submit", func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.call(ctx, http.MethodPost, "/predictions", req, &submitted)
	})
	if err != nil {
		return "", &faults.UpstreamError{Stage: "image generation", Err: err}
	}

	var final prediction
	err = jobs.PollUntil(ctx, c.PollInterval, c.MaxPollAttempts, func(ctx context.Context) (bool, error) {
		var p prediction
		if err := c.call(ctx, http.MethodGet, "/predictions/"+submitted.ID, nil, &p); err != nil {
			return false, err
		}
		switch p.Status {
		case "succeeded":
			final = p
			return true, nil
		case "failed", "canceled":
			return false, fmt.Errorf("prediction %s %s: %s", p.ID, p.Status, p.Error)
		}
		return false, nil
	})
	if err != nil {
		return "", &faults.UpstreamError{Stage: "image generation", Err: err}
	}

	return final.Output, nil
}

func (c *ImageClient) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
