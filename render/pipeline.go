package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"scenecast/faults"
	"scenecast/jobs"
	"scenecast/motion"
	"scenecast/types"
)

// Uploader publishes a finished video to blob storage and returns its public
// URL. Nil disables uploading; the video is then served from the scratch
// area via PublicBaseURL.
type Uploader interface {
	UploadFile(ctx context.Context, key, localPath, contentType string) (string, error)
}

// Pipeline is the production render implementation driven by the job
// manager: download assets, render one motion segment per scene, concatenate,
// mux audio, burn subtitles, publish.
type Pipeline struct {
	ScratchDir          string
	PublicBaseURL       string
	Uploader            Uploader
	MaxConcurrentScenes int
	MaxConcurrentFetch  int
}

var _ jobs.Pipeline = (*Pipeline)(nil)

func (p *Pipeline) sceneLimit() int {
	if p.MaxConcurrentScenes > 0 {
		return p.MaxConcurrentScenes
	}
	return 2
}

func (p *Pipeline) fetchLimit() int {
	if p.MaxConcurrentFetch > 0 {
		return p.MaxConcurrentFetch
	}
	return 4
}

// Render runs one job end to end inside a per-job scratch directory. Scene
// segments render in parallel; concatenation and muxing wait for all of
// them. Scratch artifacts are left in place for the sweeper so a completed
// video stays servable for the retention window.
func (p *Pipeline) Render(ctx context.Context, jobID string, req types.RenderRequest, report jobs.Reporter) (types.RenderResult, error) {
	started := time.Now()

	if err := ValidateScenes(req.Scenes); err != nil {
		return types.RenderResult{}, err
	}
	family, err := ParseFamily(req.EffectType)
	if err != nil {
		return types.RenderResult{}, err
	}
	method, err := ParseMethod(req.RenderMethod)
	if err != nil {
		return types.RenderResult{}, err
	}

	workDir := filepath.Join(p.ScratchDir, jobID)
	imagesDir := filepath.Join(workDir, "images")
	segmentsDir := filepath.Join(workDir, "segments")
	for _, dir := range []string{workDir, imagesDir, segmentsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return types.RenderResult{}, fmt.Errorf("failed to create work dir: %w", err)
		}
	}

	report.Step(fmt.Sprintf("render started: %d scenes, %dx%d@%dfps",
		len(req.Scenes), req.Video.Width, req.Video.Height, req.Video.Framerate), 5)

	// Audio first; without it there is nothing to mux.
	report.Stage("downloading audio", 10)
	audioPath := filepath.Join(workDir, "audio.mp3")
	if err := fetchWithRetry(ctx, req.AudioURL, audioPath); err != nil {
		return types.RenderResult{}, err
	}
	report.Step("audio downloaded", 15)

	report.Stage(fmt.Sprintf("downloading %d scene images", len(req.Scenes)), 20)
	if err := p.downloadImages(ctx, req, imagesDir, report); err != nil {
		return types.RenderResult{}, err
	}
	report.Step(fmt.Sprintf("all images downloaded (%d/%d)", len(req.Scenes), len(req.Scenes)), 30)

	report.Step(fmt.Sprintf("applying %s motion to scenes", family), 35)
	if err := p.renderSegments(ctx, req, family, method, imagesDir, segmentsDir, report); err != nil {
		return types.RenderResult{}, err
	}
	report.Step("all scene segments rendered", 60)

	report.Stage("writing concat list", 65)
	concatPath, err := WriteConcatFile(workDir, segmentsDir, len(req.Scenes))
	if err != nil {
		return types.RenderResult{}, fmt.Errorf("failed to write concat list: %w", err)
	}
	report.Step("concat list written", 68)

	var assPath string
	if req.Subtitles != nil && req.Subtitles.Enabled {
		assPath = filepath.Join(workDir, "subtitles.ass")
		if err := WriteASS(req.Scenes, *req.Subtitles, req.Video.Width, req.Video.Height, assPath); err != nil {
			return types.RenderResult{}, fmt.Errorf("failed to write subtitles: %w", err)
		}
		// SRT alongside for callers that want captions without burn-in.
		if err := WriteSRT(req.Scenes, filepath.Join(workDir, "subtitles.srt")); err != nil {
			return types.RenderResult{}, fmt.Errorf("failed to write captions: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return types.RenderResult{}, err
	}

	report.Stage("concatenating segments and muxing audio", 70)
	outputPath := filepath.Join(workDir, "output."+req.Video.Format)
	if err := Mux(concatPath, audioPath, assPath, outputPath); err != nil {
		return types.RenderResult{}, err
	}
	report.Step("encoding finished", 95)

	info, err := os.Stat(outputPath)
	if err != nil {
		return types.RenderResult{}, &faults.RenderError{Stage: "output stat", Err: err}
	}
	report.Step(fmt.Sprintf("video file created: %.2f MB", float64(info.Size())/1024/1024), 98)

	videoURL, err := p.publish(ctx, req, jobID, outputPath)
	if err != nil {
		return types.RenderResult{}, err
	}

	return types.RenderResult{
		VideoURL: videoURL,
		Duration: time.Since(started).Seconds(),
		FileSize: info.Size(),
	}, nil
}

func (p *Pipeline) downloadImages(ctx context.Context, req types.RenderRequest, imagesDir string, report jobs.Reporter) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.fetchLimit())

	for i, sc := range req.Scenes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dest := filepath.Join(imagesDir, fmt.Sprintf("scene_%d.jpg", i))
			if err := fetchWithRetry(gctx, sc.ImageURL, dest); err != nil {
				return err
			}
			report.Stage(fmt.Sprintf("downloaded image for scene %d/%d", i+1, len(req.Scenes)), -1)
			return nil
		})
	}

	return g.Wait()
}

func (p *Pipeline) renderSegments(ctx context.Context, req types.RenderRequest, family motion.Family, method Method, imagesDir, segmentsDir string, report jobs.Reporter) error {
	total := len(req.Scenes)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.sceneLimit())

	var completed completedCounter

	for i, sc := range req.Scenes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			effect := motion.VariantFor(family, i)
			plan := motion.NewPlan(effect, sc.Duration(), req.Video.Width, req.Video.Height, req.Video.Framerate)
			imagePath := filepath.Join(imagesDir, fmt.Sprintf("scene_%d.jpg", i))
			segmentPath := SegmentPath(segmentsDir, i)

			report.Stage(fmt.Sprintf("rendering scene %d/%d (%s)", i+1, total, effect), -1)

			// One local retry before the whole job fails.
			err := RenderSceneSegment(imagePath, segmentPath, plan, method, sc.Duration())
			if err != nil {
				err = RenderSceneSegment(imagePath, segmentPath, plan, method, sc.Duration())
			}
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}

			done := completed.increment()
			// Scene rendering spans the 35-60 progress range.
			report.Stage(fmt.Sprintf("scene %d/%d finished", done, total), 35+done*25/total)
			return nil
		})
	}

	return g.Wait()
}

func (p *Pipeline) publish(ctx context.Context, req types.RenderRequest, jobID, outputPath string) (string, error) {
	if p.Uploader != nil {
		key := fmt.Sprintf("users/%s/projects/%s/renders/%s.%s", req.UserID, req.ProjectID, jobID, req.Video.Format)
		url, err := p.Uploader.UploadFile(ctx, key, outputPath, "video/"+req.Video.Format)
		if err != nil {
			return "", err
		}
		return url, nil
	}

	rel, err := filepath.Rel(p.ScratchDir, outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve video path: %w", err)
	}
	return p.PublicBaseURL + "/videos/" + filepath.ToSlash(rel), nil
}

// fetchWithRetry downloads a remote asset, retrying once before surfacing a
// storage error.
func fetchWithRetry(ctx context.Context, url, dest string) error {
	err := downloadFile(url, dest)
	if err == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
	}
	if err = downloadFile(url, dest); err != nil {
		return &faults.StorageError{Op: "download", Key: url, Err: err}
	}
	return nil
}

// completedCounter tracks finished scenes across render goroutines.
type completedCounter struct {
	mu sync.Mutex
	n  int
}

func (c *completedCounter) increment() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}
