package kafka

import (
	"context"
	"errors"
	"log"

	"scenecast/faults"
	"scenecast/jobs"
	"scenecast/types"
)

// NewRenderRequestHandler builds a handler that submits render requests
// arriving on the queue to the job manager. Invalid payloads and rejected
// requests are marked so they do not replay; only transient submit failures
// are left for retry.
func NewRenderRequestHandler(manager *jobs.Manager) MessageHandler {
	return &TypedMessageHandler[types.RenderRequest]{
		AlwaysMark: true,
		Validate: func(msg *types.RenderRequest) bool {
			if msg.ProjectID == "" || msg.AudioURL == "" || len(msg.Scenes) == 0 {
				log.Printf("⚠️ Skipping render message with missing fields (project=%q)", msg.ProjectID)
				return false
			}
			return true
		},
		Process: func(ctx context.Context, msg *types.RenderRequest) error {
			job, err := manager.Submit(ctx, *msg)
			if err != nil {
				// Duplicate submissions for a project already rendering are
				// expected under at-least-once delivery; drop them.
				if errors.Is(err, jobs.ErrRenderInFlight) {
					log.Printf("⚠️ Render already in flight for project %s, dropping message", msg.ProjectID)
					return nil
				}
				// A request that fails validation will never succeed on
				// replay either.
				var ve *faults.ValidationError
				if errors.As(err, &ve) {
					log.Printf("⚠️ Dropping invalid render message for project %s: %v", msg.ProjectID, ve)
					return nil
				}
				return err
			}
			log.Printf("🎬 Queued render job %s for project %s (%d scenes)", job.ID, msg.ProjectID, len(msg.Scenes))
			return nil
		},
	}
}
