// Package jobs tracks asynchronous work: a render request becomes a Job that
// moves pending → processing → one terminal state, accumulating a step log
// and a monotonically non-decreasing progress percentage along the way.
// Callers poll by job id until they observe a terminal state.
package jobs

import (
	"time"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Kind distinguishes what a job tracks. The manager's bookkeeping is the
// same for all kinds; only the payload differs.
type Kind string

const (
	KindVideoRender     Kind = "video_render"
	KindImageGeneration Kind = "image_generation"
)

// Step is one completed pipeline milestone.
type Step struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Job is one tracked unit of asynchronous work.
type Job struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Kind      Kind   `json:"kind"`
	Status    Status `json:"status"`
	Progress  int    `json:"progress"`
	// CurrentStep is the in-flight milestone; cleared when a step completes.
	CurrentStep string `json:"currentStep,omitempty"`
	Steps       []Step `json:"steps"`

	VideoURL string  `json:"videoUrl,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	FileSize int64   `json:"fileSize,omitempty"`
	Error    string  `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// transition moves the job to a new status. Transitions out of a terminal
// state are ignored; once completed, failed, or cancelled a job never
// changes again.
func (j *Job) transition(to Status) bool {
	if j.Status.Terminal() {
		return false
	}
	j.Status = to
	if to.Terminal() {
		now := time.Now().UTC()
		j.FinishedAt = &now
	}
	return true
}

// setProgress clamps to [0, 100] and never moves backwards.
func (j *Job) setProgress(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if p > j.Progress {
		j.Progress = p
	}
}

// addStep appends a completed milestone and clears the in-flight one.
func (j *Job) addStep(message string) {
	j.Steps = append(j.Steps, Step{Message: message, Timestamp: time.Now().UTC()})
	j.CurrentStep = ""
}

// clone returns a copy safe to hand to callers while the pipeline keeps
// mutating the original.
func (j *Job) clone() *Job {
	c := *j
	c.Steps = append([]Step(nil), j.Steps...)
	return &c
}
