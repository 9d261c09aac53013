package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common fields for all storage entities.
type BaseEntity struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBaseEntity returns a BaseEntity with a time-ordered id.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.Must(uuid.NewV7()),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StorageID returns the id as a key suffix. Version 7 ids sort by creation time.
func (e BaseEntity) StorageID() string {
	return e.ID.String()
}

// Marshal encodes an entity the way every repository stores it.
func Marshal(entity any) ([]byte, error) {
	return json.Marshal(entity)
}

// Unmarshal decodes data written by Marshal.
func Unmarshal(data []byte, entity any) error {
	return json.Unmarshal(data, entity)
}
