package session

import "errors"

var (
	ErrNotFound       = errors.New("element not found")
	ErrFolderNotFound = errors.New("folder not found")
	ErrReferenced     = errors.New("element is referenced")
	ErrInvalid        = errors.New("invalid model")
	ErrBusy           = errors.New("model is being synchronized")
)
