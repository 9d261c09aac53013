package vcs

import (
	"time"

	"github.com/go-git/go-git/v6/plumbing"
)

// CloneRequest represents the request to clone a repository.
type CloneRequest struct {
	URL         string // Git repository URL
	Branch      string // Branch to clone (optional, defaults to the remote HEAD)
	Directory   string // Directory to clone into
	Credentials Credentials
}

// BranchInfo represents information about a branch, local and/or remote.
type BranchInfo struct {
	Name       string
	Hash       string // Local tip, or remote tip when there is no local branch
	IsCurrent  bool
	IsDefault  bool
	HasLocal   bool
	HasRemote  bool
	RemoteHash string
}

// CommitInfo describes a single commit.
type CommitInfo struct {
	Hash    string
	Message string
	Author  string
	Email   string
	When    time.Time
	Parents []string
}

// UserDetails is the identity used to author commits.
type UserDetails struct {
	Name  string
	Email string
}

// FetchStatus is the outcome of a fetch.
type FetchStatus int

const (
	FetchUpToDate FetchStatus = iota
	FetchUpdated
)

func (s FetchStatus) String() string {
	if s == FetchUpdated {
		return "updated"
	}
	return "up-to-date"
}

// MergeStatus is the outcome of a merge.
type MergeStatus int

const (
	MergeUpToDate MergeStatus = iota
	MergeFastForward
	MergeMerged
	MergeConflicting
)

func (s MergeStatus) String() string {
	switch s {
	case MergeFastForward:
		return "fast-forward"
	case MergeMerged:
		return "merged"
	case MergeConflicting:
		return "conflicting"
	default:
		return "up-to-date"
	}
}

// FileVersion is one side of a conflicting path. A nil *FileVersion means the
// path does not exist on that side.
type FileVersion struct {
	Hash    plumbing.Hash
	Content []byte
}

// Conflict is a path changed differently on both sides of a merge.
type Conflict struct {
	Path   string
	Base   *FileVersion
	Ours   *FileVersion
	Theirs *FileVersion
}

// MergeResult reports what Merge did.
type MergeResult struct {
	Status    MergeStatus
	Ours      plumbing.Hash // HEAD before the merge
	Theirs    plumbing.Hash
	Commit    plumbing.Hash // resulting HEAD for fast-forward and merged
	Conflicts []Conflict
}

// Choice selects the side kept for a conflicting path.
type Choice int

const (
	ChoiceOurs Choice = iota
	ChoiceTheirs
)

func (c Choice) String() string {
	if c == ChoiceTheirs {
		return "theirs"
	}
	return "ours"
}
