package repository

import (
	"time"

	"github.com/modelsync/modelsync/internal/journal"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/resolver"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/samber/lo"
)

type CredentialsDTO struct {
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	PrivateKeyPath string `json:"private_key_path,omitempty"`
	Passphrase     string `json:"passphrase,omitempty"`
}

// POSTRemoteRequest represents the request payload for clone and create.
type POSTRemoteRequest struct {
	URL         string          `json:"url"                   validate:"required"`
	Credentials *CredentialsDTO `json:"credentials,omitempty"`
}

// POSTSyncRequest represents the optional request payload for refresh and publish.
type POSTSyncRequest struct {
	Message     string          `json:"message,omitempty"     validate:"max=1000"`
	Credentials *CredentialsDTO `json:"credentials,omitempty"`
}

// POSTResetRequest represents the request payload for reset.
type POSTResetRequest struct {
	Ref string `json:"ref,omitempty" validate:"max=255"`
}

// PUTUserRequest represents the request payload for the commit identity.
type PUTUserRequest struct {
	Name  string `json:"name"  validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
}

type UserResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type StateResponse struct {
	Path            string `json:"path"`
	Branch          string `json:"branch"`
	RemoteURL       string `json:"remote_url"`
	Head            string `json:"head,omitempty"`
	Dirty           bool   `json:"dirty"`
	Checksum        string `json:"checksum,omitempty"`
	ChecksumValid   bool   `json:"checksum_valid"`
	UnpushedCommits bool   `json:"unpushed_commits"`
	RemoteCommits   bool   `json:"remote_commits"`
}

type RestoredResponse struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Commit     string `json:"commit"`
	Descriptor string `json:"descriptor"`
}

type ConflictResponse struct {
	Path      string `json:"path"`
	ElementID string `json:"element_id,omitempty"`
}

type ResultResponse struct {
	ID          string             `json:"id"`
	Operation   string             `json:"operation"`
	State       string             `json:"state"`
	Transitions []string           `json:"transitions"`
	PreMerge    string             `json:"pre_merge,omitempty"`
	Commits     []string           `json:"commits"`
	Restored    []RestoredResponse `json:"restored"`
	Conflicts   []ConflictResponse `json:"conflicts"`
	Problems    []string           `json:"problems"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
}

// FailedResultResponse is returned when a run fails after producing diagnostics.
type FailedResultResponse struct {
	Message string         `json:"message"`
	Run     ResultResponse `json:"run"`
}

type BranchResponse struct {
	Name       string `json:"name"`
	Hash       string `json:"hash,omitempty"`
	IsCurrent  bool   `json:"is_current"`
	IsDefault  bool   `json:"is_default"`
	HasLocal   bool   `json:"has_local"`
	HasRemote  bool   `json:"has_remote"`
	RemoteHash string `json:"remote_hash,omitempty"`
}

type CommitResponse struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	When    time.Time `json:"when"`
	Parents []string  `json:"parents"`
}

type RunResponse struct {
	ID          string        `json:"id"`
	Operation   string        `json:"operation"`
	Repository  string        `json:"repository"`
	State       string        `json:"state"`
	Transitions []string      `json:"transitions"`
	Commits     []string      `json:"commits"`
	Restored    []string      `json:"restored"`
	Conflicts   []string      `json:"conflicts"`
	Problems    []string      `json:"problems"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

type EventResponse struct {
	Kind       string    `json:"kind"`
	Repository string    `json:"repository"`
	Operation  string    `json:"operation"`
	At         time.Time `json:"at"`
}

func (c *CredentialsDTO) toCredentials() *vcs.Credentials {
	if c == nil {
		return nil
	}
	creds := vcs.Credentials(*c)
	return &creds
}

func (r *PUTUserRequest) toUserDetails() vcs.UserDetails {
	return vcs.UserDetails(*r)
}

func newUserResponse(u vcs.UserDetails) UserResponse {
	return UserResponse(u)
}

func newStateResponse(s *orchestrator.RepositoryState) StateResponse {
	return StateResponse(*s)
}

func newResultResponse(r *orchestrator.Result) ResultResponse {
	return ResultResponse{
		ID:          r.ID,
		Operation:   string(r.Operation),
		State:       string(r.State),
		Transitions: lo.Map(r.Transitions, func(s orchestrator.State, _ int) string { return string(s) }),
		PreMerge:    r.PreMerge,
		Commits:     nonNil(r.Commits),
		Restored: lo.Map(r.Restored, func(o resolver.RestoredObject, _ int) RestoredResponse {
			return RestoredResponse(o)
		}),
		Conflicts: lo.Map(r.Conflicts, func(c orchestrator.Conflict, _ int) ConflictResponse {
			return ConflictResponse{Path: c.Path, ElementID: c.ElementID}
		}),
		Problems:   nonNil(r.Problems),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func newBranchResponse(b vcs.BranchInfo) BranchResponse {
	return BranchResponse(b)
}

func newCommitResponse(c vcs.CommitInfo) CommitResponse {
	return CommitResponse(c)
}

func newRunResponse(r journal.Run) RunResponse {
	return RunResponse{
		ID:          r.ID.String(),
		Operation:   r.Operation,
		Repository:  r.Repository,
		State:       r.State,
		Transitions: r.Transitions,
		Commits:     r.Commits,
		Restored:    r.Restored,
		Conflicts:   r.Conflicts,
		Problems:    r.Problems,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		Duration:    r.Duration(),
	}
}

func newEventResponse(e orchestrator.Event) EventResponse {
	return EventResponse{
		Kind:       string(e.Kind),
		Repository: e.Repository,
		Operation:  string(e.Operation),
		At:         e.At,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
