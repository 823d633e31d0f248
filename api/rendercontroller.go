package api

import (
	"errors"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"scenecast/faults"
	"scenecast/jobs"
	"scenecast/render"
	"scenecast/scenes"
	"scenecast/storage"
	"scenecast/types"
)

type renderController struct {
	manager *jobs.Manager
	blob    *storage.Blob
}

// RegisterRenderRoutes registers the render job endpoints.
func RegisterRenderRoutes(r *gin.Engine, manager *jobs.Manager, blob *storage.Blob) {
	ctrl := &renderController{manager: manager, blob: blob}

	r.POST("/render", ctrl.handleSubmit)
	r.GET("/jobs/:id", ctrl.handleGetJob)
	r.DELETE("/jobs/:id", ctrl.handleCancelJob)
	r.POST("/projects/:id/repair", ctrl.handleRepair)
}

// handleSubmit accepts a render request and starts an asynchronous job.
// POST /render
func (ctrl *renderController) handleSubmit(c *gin.Context) {
	var req types.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := ctrl.manager.Submit(c.Request.Context(), req)
	if err != nil {
		var ve *faults.ValidationError
		switch {
		case errors.As(err, &ve):
			body := gin.H{"error": ve.Message}
			if len(ve.SceneIndices) > 0 {
				body["sceneIndices"] = ve.SceneIndices
			}
			c.JSON(http.StatusBadRequest, body)
		case errors.Is(err, jobs.ErrRenderInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("❌ Failed to submit render for project %s: %v", req.ProjectID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start render"})
		}
		return
	}

	log.Printf("🎬 Accepted render job %s for project %s", job.ID, req.ProjectID)
	c.JSON(http.StatusAccepted, gin.H{
		"jobId":     job.ID,
		"status":    job.Status,
		"statusUrl": "/jobs/" + job.ID,
	})
}

// handleGetJob returns the current state of a job.
// GET /jobs/:id
func (ctrl *renderController) handleGetJob(c *gin.Context) {
	job, err := ctrl.manager.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// handleCancelJob cancels an active job. Terminal jobs come back unchanged.
// DELETE /jobs/:id
func (ctrl *renderController) handleCancelJob(c *gin.Context) {
	job, err := ctrl.manager.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// handleRepair re-attaches previously uploaded images to scenes that lost
// their URLs, by scanning the project's image folder in object storage.
//
// The folder layout is a contract with the project editor, which uploads
// each generated scene image to
// storage.ObjectKey(userID, projectID, "images/scene_<index>.<ext>") before
// submitting a render. sceneIndexFromKey must stay in sync with that naming.
// POST /projects/:id/repair
func (ctrl *renderController) handleRepair(c *gin.Context) {
	if ctrl.blob == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage not configured"})
		return
	}

	var req repairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if len(req.Scenes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no scenes provided"})
		return
	}

	projectID := c.Param("id")
	prefix := storage.ObjectKey(req.UserID, projectID, "images/")
	entries, err := ctrl.blob.List(c.Request.Context(), prefix)
	if err != nil {
		log.Printf("❌ Failed to list images for project %s: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list project images"})
		return
	}

	completed := make(map[int]string, len(entries))
	for _, entry := range entries {
		idx, ok := sceneIndexFromKey(entry.Key)
		if !ok {
			continue
		}
		completed[idx] = ctrl.blob.PublicURL(entry.Key)
	}

	repaired, count := render.RepairMissingImages(req.Scenes, completed)
	still := scenes.MissingImageIndices(repaired)

	log.Printf("🔧 Repaired %d scene image(s) for project %s (%d still missing)", count, projectID, len(still))
	c.JSON(http.StatusOK, gin.H{
		"scenes":       repaired,
		"repaired":     count,
		"stillMissing": still,
	})
}

type repairRequest struct {
	UserID string         `json:"userId"`
	Scenes []scenes.Scene `json:"scenes"`
}

// sceneIndexFromKey extracts the scene index from an image object key of
// the form .../images/scene_3.png.
func sceneIndexFromKey(key string) (int, bool) {
	base := path.Base(key)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if !strings.HasPrefix(name, "scene_") {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(name, "scene_"))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
