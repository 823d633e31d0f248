// Package upstream holds the clients for the external generation APIs:
// transcription, image generation, and text-to-speech. They are consumed as
// black boxes returning text or URLs; every call applies bounded retry with
// exponential backoff, and failures after retries surface as stage-scoped
// upstream errors rather than crashing the pipeline.
package upstream

import (
	"context"
	"log"
	"time"
)

const (
	// MaxAttempts bounds retries against a flapping upstream.
	MaxAttempts = 3
	// BaseDelay is the first backoff interval; it doubles per attempt.
	BaseDelay = 2 * time.Second
)

// withRetry runs fn up to MaxAttempts times with exponential backoff between
// failures. The last error is returned when all attempts fail.
func withRetry(ctx context.Context, stage string, fn func() error) error {
	delay := BaseDelay
	var err error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == MaxAttempts {
			break
		}

		log.Printf("%s attempt %d/%d failed: %v (retrying in %s)", stage, attempt, MaxAttempts, err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
