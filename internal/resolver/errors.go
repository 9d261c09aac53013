package resolver

import "errors"

var (
	ErrHistoryRead         = errors.New("failed to read history")
	ErrRestoreFailed       = errors.New("failed to restore object")
	ErrUnresolvedReference = errors.New("unresolved reference")
)
