package orchestrator

import (
	"context"
	"time"

	"github.com/modelsync/modelsync/internal/model"
	"github.com/modelsync/modelsync/internal/resolver"
	"github.com/modelsync/modelsync/internal/vcs"
)

// State is a step of a pipeline run.
type State string

const (
	StateInit            State = "INIT"
	StateExported        State = "EXPORTED"
	StateAuthenticated   State = "AUTHENTICATED"
	StateFetched         State = "FETCHED"
	StateUpToDate        State = "UP_TO_DATE"
	StateMerged          State = "MERGED"
	StateConflicting     State = "CONFLICTING"
	StateResolving       State = "RESOLVING"
	StateResolved        State = "RESOLVED"
	StateCancelled       State = "CANCELLED"
	StateReimported      State = "REIMPORTED"
	StateNotified        State = "NOTIFIED"
	StateDone            State = "DONE"
	StateMergedCancelled State = "MERGED_CANCELLED"
	StateFailed          State = "FAILED"
)

// Operation names a pipeline.
type Operation string

const (
	OperationRefresh          Operation = "refresh"
	OperationPublish          Operation = "publish"
	OperationClone            Operation = "clone"
	OperationCreateFromModel  Operation = "create"
	OperationCheckoutBranch   Operation = "checkout"
	OperationDeleteBranch     Operation = "delete-branch"
	OperationDeleteRepository Operation = "delete-repository"
	OperationReset            Operation = "reset"
)

// EventKind is the kind of change announced to listeners.
type EventKind string

const (
	EventHistoryChanged    EventKind = "HISTORY_CHANGED"
	EventRepositoryChanged EventKind = "REPOSITORY_CHANGED"
	EventRepositoryDeleted EventKind = "REPOSITORY_DELETED"
)

// Event is delivered to a Notifier at the end of a pipeline.
type Event struct {
	Kind       EventKind
	Repository string
	Operation  Operation
	At         time.Time
}

// Conflict is a path both sides of a merge changed differently.
type Conflict struct {
	Path      string
	ElementID string // empty for folder and model files
	Base      *vcs.FileVersion
	Ours      *vcs.FileVersion
	Theirs    *vcs.FileVersion
}

// Result reports a finished pipeline run.
type Result struct {
	ID          string
	Operation   Operation
	Repository  string
	State       State
	Transitions []State
	PreMerge    string // HEAD before fetching, empty when not reached
	Commits     []string
	Restored    []resolver.RestoredObject
	Conflicts   []Conflict
	Problems    []string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// RepositoryState describes the working directory and its clone.
type RepositoryState struct {
	Path            string
	Branch          string
	RemoteURL       string
	Head            string
	Dirty           bool
	Checksum        string
	ChecksumValid   bool
	UnpushedCommits bool
	RemoteCommits   bool
}

// Options tune a single run. Zero values fall back to the configuration.
type Options struct {
	Message     string
	Credentials *vcs.Credentials
	Operator    Operator
}

// ModelStore owns the live model of the editing session.
type ModelStore interface {
	IsDirty() bool
	Save(ctx context.Context) error
	Model() *model.Model
	Replace(ctx context.Context, m *model.Model) error
	// Hold rejects edits until release is called. A pipeline holds the
	// store for its whole run so Replace never discards an edit.
	Hold() (release func())
}

// CredentialProvider supplies credentials for a remote URL.
type CredentialProvider interface {
	Credentials(ctx context.Context, url string) (vcs.Credentials, error)
}

// Operator answers the questions a user would be asked during a run.
type Operator interface {
	// ConfirmSave is asked when the model has unsaved edits. Declining
	// aborts the run before anything is mutated.
	ConfirmSave(ctx context.Context) bool
	// ResolveConflicts picks a side per conflicting path. Returning false
	// cancels the merge.
	ResolveConflicts(ctx context.Context, conflicts []Conflict) (map[string]vcs.Choice, bool)
}

// Notifier receives change events. Delivery is best effort.
type Notifier interface {
	Notify(event Event)
}

// Recorder keeps a record of every run.
type Recorder interface {
	Record(ctx context.Context, result *Result, runErr error) error
}
