package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"scenecast/scenes"
	"scenecast/upstream"
)

func newSceneRouter(transcription *upstream.TranscriptionClient, images *upstream.ImageClient, tts *upstream.TTSClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterSceneRoutes(r, transcription, images, tts)
	return r
}

func TestSegmentInlineTranscript(t *testing.T) {
	r := newSceneRouter(nil, nil, nil)

	w := postJSON(t, r, "/scenes/segment", map[string]any{
		"segments": []scenes.TranscriptSegment{
			{Text: "The harbor wakes. ", StartTime: 0, EndTime: 2},
			{Text: "Boats drift out.", StartTime: 2, EndTime: 4},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Scenes     []scenes.Scene `json:"scenes"`
		SceneCount int            `json:"sceneCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.SceneCount != 1 {
		t.Errorf("sceneCount = %d, want 1 (4s fits one default scene)", resp.SceneCount)
	}
	if resp.Scenes[0].EndTime != 4 {
		t.Errorf("scene end = %v, want 4", resp.Scenes[0].EndTime)
	}
}

func TestSegmentDefaultsToSentenceBoundaries(t *testing.T) {
	// 0-2s has no terminal punctuation, so sentence-aware segmentation
	// stretches past the 4s policy max to close at "ends." while strict
	// mode cuts on duration alone. An omitted flag must behave like true.
	transcript := []scenes.TranscriptSegment{
		{Text: "alpha", StartTime: 0, EndTime: 2},
		{Text: "beta ends.", StartTime: 2, EndTime: 5},
		{Text: "gamma.", StartTime: 5, EndTime: 7},
	}
	r := newSceneRouter(nil, nil, nil)

	segment := func(t *testing.T, body map[string]any) []scenes.Scene {
		t.Helper()
		w := postJSON(t, r, "/scenes/segment", body)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Scenes []scenes.Scene `json:"scenes"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return resp.Scenes
	}

	omitted := segment(t, map[string]any{"segments": transcript})
	if len(omitted) != 2 {
		t.Fatalf("omitted flag: %d scenes, want 2 (sentence-aware)", len(omitted))
	}
	if omitted[0].EndTime != 5 || omitted[1].StartTime != 5 {
		t.Errorf("omitted flag: cut at %v/%v, want sentence boundary at 5", omitted[0].EndTime, omitted[1].StartTime)
	}

	explicit := segment(t, map[string]any{"segments": transcript, "preferSentenceBoundaries": true})
	if len(explicit) != 2 {
		t.Errorf("explicit true: %d scenes, want 2", len(explicit))
	}

	strict := segment(t, map[string]any{"segments": transcript, "preferSentenceBoundaries": false})
	if len(strict) != 3 {
		t.Fatalf("explicit false: %d scenes, want 3 (strict)", len(strict))
	}
	if strict[0].EndTime != 2 || strict[1].EndTime != 5 {
		t.Errorf("strict cuts at %v/%v, want 2/5", strict[0].EndTime, strict[1].EndTime)
	}
}

func TestSegmentFromAudioURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"segments": []map[string]any{
				{"text": "hello world.", "startTime": 0.0, "endTime": 1.5},
			},
			"languageCode": "en",
		})
	}))
	defer server.Close()

	r := newSceneRouter(upstream.NewTranscriptionClient(server.URL, "", 600), nil, nil)

	w := postJSON(t, r, "/scenes/segment", map[string]any{"audioUrl": "https://cdn/a.mp3"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		SceneCount   int    `json:"sceneCount"`
		LanguageCode string `json:"languageCode"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.SceneCount != 1 || resp.LanguageCode != "en" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSegmentRequiresTranscriptOrService(t *testing.T) {
	r := newSceneRouter(nil, nil, nil)

	if w := postJSON(t, r, "/scenes/segment", map[string]any{"audioUrl": "https://cdn/a.mp3"}); w.Code != http.StatusServiceUnavailable {
		t.Errorf("audioUrl without service: status = %d, want 503", w.Code)
	}
	if w := postJSON(t, r, "/scenes/segment", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty request: status = %d, want 400", w.Code)
	}
}

func TestGenerateImagesFillsMissingScenes(t *testing.T) {
	var submits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			n := atomic.AddInt32(&submits, 1)
			json.NewEncoder(w).Encode(map[string]any{"id": fmt.Sprintf("pred-%d", n), "status": "starting"})
			return
		}
		id := r.URL.Path[len("/predictions/"):]
		json.NewEncoder(w).Encode(map[string]any{
			"id": id, "status": "succeeded", "output": "https://cdn/" + id + ".png",
		})
	}))
	defer server.Close()

	images := upstream.NewImageClient(server.URL, "", 600)
	images.PollInterval = time.Millisecond
	r := newSceneRouter(nil, images, nil)

	w := postJSON(t, r, "/projects/proj-1/images", map[string]any{
		"scenes": []scenes.Scene{
			{Text: "one.", ImageURL: "https://cdn/existing.png"},
			{Text: "two.", Prompt: "a boat"},
			{Text: "three."},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Scenes    []scenes.Scene `json:"scenes"`
		Generated int            `json:"generated"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Generated != 2 {
		t.Errorf("generated = %d, want 2", resp.Generated)
	}
	if resp.Scenes[0].ImageURL != "https://cdn/existing.png" {
		t.Error("existing image must not be regenerated")
	}
	if resp.Scenes[1].ImageURL == "" || resp.Scenes[2].ImageURL == "" {
		t.Errorf("missing scenes not filled: %+v", resp.Scenes)
	}
	if got := atomic.LoadInt32(&submits); got != 2 {
		t.Errorf("submits = %d, want 2", got)
	}
}

func TestGenerateImagesNothingMissing(t *testing.T) {
	images := upstream.NewImageClient("http://unused", "", 600)
	r := newSceneRouter(nil, images, nil)

	w := postJSON(t, r, "/projects/p/images", map[string]any{
		"scenes": []scenes.Scene{{Text: "one.", ImageURL: "https://cdn/0.png"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Generated int `json:"generated"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Generated != 0 {
		t.Errorf("generated = %d, want 0", resp.Generated)
	}
}

func TestNarrate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(upstream.TTSResult{AudioURL: "https://cdn/narration.mp3"})
	}))
	defer server.Close()

	r := newSceneRouter(nil, nil, upstream.NewTTSClient(server.URL, "", 600))

	w := postJSON(t, r, "/narrate", map[string]any{"text": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var result upstream.TTSResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.AudioURL != "https://cdn/narration.mp3" {
		t.Errorf("audio url = %q", result.AudioURL)
	}

	if w := postJSON(t, r, "/narrate", map[string]any{"text": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("empty text: status = %d, want 400", w.Code)
	}
}

func TestNarrateUnconfigured(t *testing.T) {
	r := newSceneRouter(nil, nil, nil)
	if w := postJSON(t, r, "/narrate", map[string]any{"text": "x"}); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
