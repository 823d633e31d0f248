package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"scenecast/config"
	"scenecast/faults"
	"scenecast/scenes"
	"scenecast/types"
)

// ErrRenderInFlight is returned when a project already has an active render
// and single-flight is enforced. Concurrent renders of one project would
// collide on storage paths and waste compute.
var ErrRenderInFlight = errors.New("a render is already in progress for this project")

// Reporter lets the pipeline publish milestones without knowing how jobs are
// stored. Step records a completed milestone; Stage updates the in-flight
// one (progress may be -1 to leave it unchanged).
type Reporter interface {
	Step(message string, progress int)
	Stage(message string, progress int)
}

// Pipeline is the render implementation driven by the manager. It reports
// milestones through the Reporter and returns the finished video's location.
type Pipeline interface {
	Render(ctx context.Context, jobID string, req types.RenderRequest, report Reporter) (types.RenderResult, error)
}

type activeRun struct {
	job       *Job
	cancel    context.CancelFunc
	projectID string
}

// Manager orchestrates render jobs: validates submissions, enforces the
// per-project single-flight rule, runs the pipeline in the background, and
// writes every state change through to the store for pollers.
type Manager struct {
	store        Store
	pipeline     Pipeline
	singleFlight bool

	mu     sync.Mutex
	live   map[string]*activeRun // job id -> run
	byProj map[string]string     // project id -> active job id
}

func NewManager(store Store, pipeline Pipeline, singleFlight bool) *Manager {
	return &Manager{
		store:        store,
		pipeline:     pipeline,
		singleFlight: singleFlight,
		live:         make(map[string]*activeRun),
		byProj:       make(map[string]string),
	}
}

// Submit validates a render request and, if acceptable, creates a pending
// job and starts the pipeline in the background. Validation failures create
// no job.
func (m *Manager) Submit(ctx context.Context, req types.RenderRequest) (*Job, error) {
	if req.ProjectID == "" {
		return nil, &faults.ValidationError{Message: "projectId is required"}
	}
	if req.AudioURL == "" {
		return nil, &faults.ValidationError{Message: "audioUrl is required"}
	}
	if len(req.Scenes) == 0 {
		return nil, &faults.ValidationError{Message: "no scenes provided"}
	}
	if missing := scenes.MissingImageIndices(req.Scenes); len(missing) > 0 {
		return nil, &faults.ValidationError{Message: "scenes missing image URLs", SceneIndices: missing}
	}
	if end := sceneSpanEnd(req.Scenes); end > config.MaxVideoDuration {
		return nil, &faults.ValidationError{
			Message: fmt.Sprintf("video duration %.1fs exceeds the %.0fs maximum", end, config.MaxVideoDuration),
		}
	}
	req.Video.ApplyDefaults()

	job := &Job{
		ID:        uuid.NewString(),
		ProjectID: req.ProjectID,
		Kind:      KindVideoRender,
		Status:    StatusPending,
		Steps:     []Step{},
		CreatedAt: time.Now().UTC(),
	}

	runCtx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.singleFlight {
		if activeID, ok := m.byProj[req.ProjectID]; ok {
			m.mu.Unlock()
			cancel()
			return nil, fmt.Errorf("%w (job %s)", ErrRenderInFlight, activeID)
		}
	}
	m.live[job.ID] = &activeRun{job: job, cancel: cancel, projectID: req.ProjectID}
	m.byProj[req.ProjectID] = job.ID
	m.mu.Unlock()

	if err := m.store.Save(ctx, job); err != nil {
		m.release(job.ID)
		cancel()
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	go m.run(runCtx, job.ID, req)

	return job.clone(), nil
}

// sceneSpanEnd returns where the last scene ends, which is the duration of
// the video to be rendered.
func sceneSpanEnd(scs []scenes.Scene) float64 {
	end := 0.0
	for _, sc := range scs {
		if sc.EndTime > end {
			end = sc.EndTime
		}
	}
	return end
}

// Get returns the current state of a job.
func (m *Manager) Get(ctx context.Context, id string) (*Job, error) {
	return m.store.Get(ctx, id)
}

// Cancel stops an active job. Cancelling a job that already reached a
// terminal state is a no-op and returns its final record.
func (m *Manager) Cancel(ctx context.Context, id string) (*Job, error) {
	m.mu.Lock()
	run, ok := m.live[id]
	if !ok {
		m.mu.Unlock()
		return m.store.Get(ctx, id)
	}

	run.cancel()
	changed := run.job.transition(StatusCancelled)
	if changed {
		run.job.Error = "cancelled by caller"
	}
	snapshot := run.job.clone()
	m.mu.Unlock()

	if changed {
		if err := m.store.Save(ctx, snapshot); err != nil {
			log.Printf("[%s] failed to persist cancellation: %v", id, err)
		}
	}
	return snapshot, nil
}

// run drives one job to a terminal state.
func (m *Manager) run(ctx context.Context, jobID string, req types.RenderRequest) {
	defer m.release(jobID)

	m.update(jobID, func(j *Job) {
		j.transition(StatusProcessing)
	})

	result, err := m.pipeline.Render(ctx, jobID, req, &managerReporter{m: m, jobID: jobID})
	if err != nil {
		m.update(jobID, func(j *Job) {
			if j.transition(StatusFailed) {
				j.Error = err.Error()
			}
		})
		log.Printf("[%s] render failed: %v", jobID, err)
		return
	}

	m.update(jobID, func(j *Job) {
		if j.transition(StatusCompleted) {
			j.VideoURL = result.VideoURL
			j.Duration = result.Duration
			j.FileSize = result.FileSize
			j.setProgress(100)
		}
	})
	log.Printf("[%s] render completed: %s", jobID, result.VideoURL)
}

// update mutates a live job under the lock and writes the new state through
// to the store.
func (m *Manager) update(jobID string, fn func(*Job)) {
	m.mu.Lock()
	run, ok := m.live[jobID]
	if !ok {
		m.mu.Unlock()
		return
	}
	fn(run.job)
	snapshot := run.job.clone()
	m.mu.Unlock()

	if err := m.store.Save(context.Background(), snapshot); err != nil {
		log.Printf("[%s] failed to persist job update: %v", jobID, err)
	}
}

// release drops a finished job from the live maps.
func (m *Manager) release(jobID string) {
	m.mu.Lock()
	if run, ok := m.live[jobID]; ok {
		run.cancel()
		if m.byProj[run.projectID] == jobID {
			delete(m.byProj, run.projectID)
		}
		delete(m.live, jobID)
	}
	m.mu.Unlock()
}

type managerReporter struct {
	m     *Manager
	jobID string
}

func (r *managerReporter) Step(message string, progress int) {
	r.m.update(r.jobID, func(j *Job) {
		j.addStep(message)
		if progress >= 0 {
			j.setProgress(progress)
		}
	})
}

func (r *managerReporter) Stage(message string, progress int) {
	r.m.update(r.jobID, func(j *Job) {
		j.CurrentStep = message
		if progress >= 0 {
			j.setProgress(progress)
		}
	})
}

// PollUntil invokes fn every interval until it reports done, the attempt
// budget runs out, or the context is cancelled. It backs the generic
// submit-then-poll pattern used by asynchronous upstream APIs.
func PollUntil(ctx context.Context, interval time.Duration, maxAttempts int, fn func(ctx context.Context) (done bool, err error)) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("gave up after %d poll attempts", maxAttempts)
}
