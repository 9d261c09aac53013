package vcs

import "errors"

var (
	ErrRepositoryNotFound      = errors.New("repository not found")
	ErrRepositoryAlreadyExists = errors.New("repository already exists")
	ErrInvalidRepository       = errors.New("invalid repository")
	ErrCloneFailed             = errors.New("failed to clone repository")
	ErrBranchNotFound          = errors.New("branch not found")
	ErrBranchAlreadyExists     = errors.New("branch already exists")
	ErrCannotDeleteBranch      = errors.New("branch cannot be deleted")
	ErrRefNotFound             = errors.New("reference not found")
	ErrNothingToCommit         = errors.New("nothing to commit")
	ErrUncommittedChanges      = errors.New("working tree has uncommitted changes")
	ErrNoMergeInProgress       = errors.New("no merge in progress")
	ErrMergeInProgress         = errors.New("merge in progress")
	ErrStopWalk                = errors.New("stop walk")

	ErrNoRemoteHistory      = errors.New("remote has no history")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrPushRejected         = errors.New("push rejected")
	ErrNetwork              = errors.New("network error")
	ErrCleanupFailed        = errors.New("failed to cleanup repository")
)
