package model

import "errors"

var (
	ErrInvalidID   = errors.New("invalid identifier")
	ErrDuplicateID = errors.New("duplicate identifier")
	ErrNotFound    = errors.New("element not found")
)
