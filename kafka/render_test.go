package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"scenecast/jobs"
	"scenecast/scenes"
	"scenecast/types"
)

type stubPipeline struct{}

func (stubPipeline) Render(ctx context.Context, jobID string, req types.RenderRequest, report jobs.Reporter) (types.RenderResult, error) {
	return types.RenderResult{VideoURL: "https://cdn/out.mp4"}, nil
}

func renderMessage(t *testing.T, projectID string) []byte {
	t.Helper()
	payload, err := json.Marshal(types.RenderRequest{
		ProjectID: projectID,
		UserID:    "user-1",
		AudioURL:  "https://cdn/audio.mp3",
		Scenes: []scenes.Scene{
			{Text: "hello.", StartTime: 0, EndTime: 3, ImageURL: "https://cdn/0.png"},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return payload
}

func TestRenderHandlerSubmitsJob(t *testing.T) {
	manager := jobs.NewManager(jobs.NewMemoryStore(), stubPipeline{}, true)
	handler := NewRenderRequestHandler(manager)

	mark, err := handler.HandleMessage(context.Background(), renderMessage(t, "proj-k1"))
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !mark {
		t.Error("successful submit should mark the message")
	}
}

func TestRenderHandlerMarksInvalidPayloads(t *testing.T) {
	manager := jobs.NewManager(jobs.NewMemoryStore(), stubPipeline{}, true)
	handler := NewRenderRequestHandler(manager)

	tests := []struct {
		name    string
		message []byte
	}{
		{"malformed json", []byte("{not json")},
		{"missing fields", []byte(`{"projectId":"p"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mark, err := handler.HandleMessage(context.Background(), tt.message)
			if err != nil {
				t.Fatalf("HandleMessage: %v", err)
			}
			if !mark {
				t.Error("poison message should be marked so it is not replayed")
			}
		})
	}
}

func TestRenderHandlerMarksValidationFailures(t *testing.T) {
	manager := jobs.NewManager(jobs.NewMemoryStore(), stubPipeline{}, true)
	handler := NewRenderRequestHandler(manager)

	payload, _ := json.Marshal(types.RenderRequest{
		ProjectID: "proj-k2",
		AudioURL:  "https://cdn/audio.mp3",
		Scenes:    []scenes.Scene{{Text: "no image."}},
	})

	mark, err := handler.HandleMessage(context.Background(), payload)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !mark {
		t.Error("validation failure should be marked, replay cannot fix it")
	}
}
