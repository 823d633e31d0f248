// Package faults defines the error kinds surfaced by the render pipeline.
// Each kind maps to a distinct caller-visible outcome: validation errors are
// rejected before a job exists, upstream and storage errors are retried at the
// call site first, render errors mark the owning job failed.
package faults

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed or incomplete input. No job is created
// when one of these is returned.
type ValidationError struct {
	Message string
	// SceneIndices lists the offending scenes when the problem is per-scene
	// (e.g. missing image URLs). Empty otherwise.
	SceneIndices []int
}

func (e *ValidationError) Error() string {
	if len(e.SceneIndices) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.SceneIndices))
	for i, idx := range e.SceneIndices {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return fmt.Sprintf("%s (scenes: %s)", e.Message, strings.Join(parts, ", "))
}

// UpstreamError reports a failure from an external generation API after
// retries were exhausted. Stage identifies the pipeline stage that failed.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RenderError reports an encoding or composition failure.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s failed: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// StorageError reports a blob store upload or download failure after retry.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s failed: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
