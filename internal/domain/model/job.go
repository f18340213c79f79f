// Package model contains the values passed between the queue, the workers and
// the pipeline.
package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job asks for one motion file to be processed.
type Job struct {
	ID        uuid.UUID // unique per submission
	Source    string    // path of the motion file
	Name      string    // output base name; empty derives it from Source
	Submitted time.Time
}

// NewJob returns a Job for source with a fresh id.
func NewJob(source string, now time.Time) Job {
	return Job{ID: uuid.New(), Source: source, Submitted: now}
}

// BaseName is the name export files are built from: Name when set, otherwise
// the source file name without directory and extension.
func (j Job) BaseName() string {
	if j.Name != "" {
		return j.Name
	}
	base := filepath.Base(j.Source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Result describes what processing a Job produced.
type Result struct {
	JobID    uuid.UUID
	Source   string
	Joints   int
	Frames   int
	Flips    int      // continuity corrections over all joints
	Files    []string // export files written
	Charts   []string // rendered images
	Duration time.Duration
	Err      error
}

// OK reports whether the job finished without error.
func (r Result) OK() bool { return r.Err == nil }
