package badgerfx

import "errors"

var ErrNotFound = errors.New("entity not found")

// Entity is a value stored by Repository under its prefix and id.
type Entity interface {
	StorageID() string
	// StorageIndexes returns secondary keys that point at the entity.
	StorageIndexes() []string
	MarshalStorage() ([]byte, error)
	UnmarshalStorage(data []byte) error
}
