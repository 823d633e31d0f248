package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"scenecast/faults"
	"scenecast/scenes"
	"scenecast/upstream"
)

type sceneController struct {
	transcription *upstream.TranscriptionClient
	images        *upstream.ImageClient
	tts           *upstream.TTSClient
}

// RegisterSceneRoutes registers the scene preparation endpoints. Each
// upstream client may be nil; its endpoint then reports the service as
// unconfigured.
func RegisterSceneRoutes(r *gin.Engine, transcription *upstream.TranscriptionClient, images *upstream.ImageClient, tts *upstream.TTSClient) {
	ctrl := &sceneController{transcription: transcription, images: images, tts: tts}

	r.POST("/scenes/segment", ctrl.handleSegment)
	r.POST("/projects/:id/images", ctrl.handleGenerateImages)
	r.POST("/narrate", ctrl.handleNarrate)
}

type segmentRequest struct {
	// AudioURL is transcribed when set; otherwise Segments must be provided.
	AudioURL string                     `json:"audioUrl"`
	Segments []scenes.TranscriptSegment `json:"segments"`

	DurationRanges []scenes.DurationRange `json:"durationRanges"`
	ShortForm      bool                   `json:"shortForm"`
	// PreferSentenceBoundaries defaults to true when omitted; strict
	// duration cuts must be asked for explicitly.
	PreferSentenceBoundaries *bool `json:"preferSentenceBoundaries"`
}

// handleSegment splits a timed transcript into scenes. The transcript comes
// either inline or from the transcription service via an audio URL.
// POST /scenes/segment
func (ctrl *sceneController) handleSegment(c *gin.Context) {
	var req segmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	segments := req.Segments
	languageCode := ""
	if req.AudioURL != "" {
		if ctrl.transcription == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription service not configured"})
			return
		}
		data, err := ctrl.transcription.Transcribe(c.Request.Context(), req.AudioURL)
		if err != nil {
			log.Printf("❌ Transcription failed for %s: %v", req.AudioURL, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "transcription failed"})
			return
		}
		segments = data.Segments
		languageCode = data.LanguageCode
	}
	if len(segments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no transcript segments provided"})
		return
	}

	ranges := req.DurationRanges
	if len(ranges) == 0 && req.ShortForm {
		ranges = scenes.ShortFormDurationRanges()
	}
	ranges = scenes.NormalizeRanges(ranges)

	preferSentences := true
	if req.PreferSentenceBoundaries != nil {
		preferSentences = *req.PreferSentenceBoundaries
	}

	scs := scenes.Segment(segments, ranges, preferSentences)

	c.JSON(http.StatusOK, gin.H{
		"scenes":       scs,
		"sceneCount":   len(scs),
		"languageCode": languageCode,
	})
}

type generateImagesRequest struct {
	Scenes []scenes.Scene `json:"scenes"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
}

// handleGenerateImages fills in images for scenes that lack one, using each
// scene's prompt (or its text when no prompt was authored). Generations run
// in parallel with a small bound; one failure fails the request so no
// half-billed batch is silently dropped.
// POST /projects/:id/images
func (ctrl *sceneController) handleGenerateImages(c *gin.Context) {
	if ctrl.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image service not configured"})
		return
	}

	var req generateImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Scenes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no scenes provided"})
		return
	}

	missing := scenes.MissingImageIndices(req.Scenes)
	if len(missing) == 0 {
		c.JSON(http.StatusOK, gin.H{"scenes": req.Scenes, "generated": 0})
		return
	}

	projectID := c.Param("id")
	log.Printf("🎨 Generating %d image(s) for project %s", len(missing), projectID)

	out := make([]scenes.Scene, len(req.Scenes))
	copy(out, req.Scenes)

	g, gctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(2)
	for _, idx := range missing {
		g.Go(func() error {
			prompt := out[idx].Prompt
			if prompt == "" {
				prompt = out[idx].Text
			}
			url, err := ctrl.images.Generate(gctx, upstream.ImageRequest{
				Prompt: prompt,
				Width:  req.Width,
				Height: req.Height,
			})
			if err != nil {
				return err
			}
			out[idx].ImageURL = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var ue *faults.UpstreamError
		if errors.As(err, &ue) {
			log.Printf("❌ Image generation failed for project %s: %v", projectID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "image generation failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scenes": out, "generated": len(missing)})
}

// handleNarrate synthesizes narration audio for a script and returns the
// hosted audio URL with per-word timing when available.
// POST /narrate
func (ctrl *sceneController) handleNarrate(c *gin.Context) {
	if ctrl.tts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech service not configured"})
		return
	}

	var req upstream.TTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	result, err := ctrl.tts.Synthesize(c.Request.Context(), req)
	if err != nil {
		log.Printf("❌ Narration failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "speech synthesis failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
