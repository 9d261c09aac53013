package grafico

import "errors"

var (
	ErrSerialization = errors.New("serialization error")
	ErrModelNotFound = errors.New("model file not found")
)
