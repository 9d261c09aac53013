package journal

import (
	"time"

	"github.com/google/uuid"
)

type RunDraft struct {
	Operation  string
	Repository string

	// Outcome
	State       string
	Transitions []string
	PreMerge    string
	Commits     []string // Commits created by the run, oldest first
	Restored    []string // Descriptors of objects recovered from history
	Conflicts   []string // Conflicting paths
	Problems    []string // Unrepaired references
	Error       string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Run is a recorded pipeline run.
type Run struct {
	RunDraft

	ID        uuid.UUID
	CreatedAt time.Time
}

func (r *Run) Failed() bool {
	return r.Error != ""
}

func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
