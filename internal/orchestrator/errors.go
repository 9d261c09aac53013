package orchestrator

import "errors"

var (
	ErrBusy                    = errors.New("another operation is in progress")
	ErrSaveDeclined            = errors.New("saving the model was declined")
	ErrWorkingTreeModified     = errors.New("working tree was modified outside of a pipeline")
	ErrSerialization           = errors.New("serialization error")
	ErrAuthentication          = errors.New("authentication failed")
	ErrNetwork                 = errors.New("network error")
	ErrPushRejected            = errors.New("push rejected")
	ErrMergeConflictUnresolved = errors.New("merge left unresolved references")
	ErrHistoryRead             = errors.New("failed to read history")
	ErrCancelled               = errors.New("operation cancelled")
	ErrCannotDeleteBranch      = errors.New("branch cannot be deleted")
	ErrNotFound                = errors.New("not found")
	ErrInvalidStrategy         = errors.New("invalid conflict strategy")
)
