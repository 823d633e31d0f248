package api

import (
	"github.com/gin-gonic/gin"

	"scenecast/jobs"
	"scenecast/storage"
	"scenecast/upstream"
)

// NewRouter constructs a Gin engine with registered routes. videoDir is the
// scratch root served under /videos so finished renders stay reachable when
// no object storage is configured; empty disables the route.
func NewRouter(manager *jobs.Manager, blob *storage.Blob, transcription *upstream.TranscriptionClient, images *upstream.ImageClient, tts *upstream.TTSClient, videoDir string) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterRenderRoutes(r, manager, blob)
	RegisterSceneRoutes(r, transcription, images, tts)
	RegisterHealthRoutes(r)
	if videoDir != "" {
		r.Static("/videos", videoDir)
	}
	return r
}
