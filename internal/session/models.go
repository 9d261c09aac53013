package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/modelsync/modelsync/internal/model"
	"github.com/modelsync/modelsync/internal/storage"
)

// Snapshot is a saved copy of the session model.
type Snapshot struct {
	ID        uuid.UUID
	Model     *model.Model
	CreatedAt time.Time
}

type snapshotModel struct {
	storage.BaseEntity

	Model *model.Model `json:"model"`
}

func newSnapshotModel(m *model.Model) *snapshotModel {
	return &snapshotModel{
		BaseEntity: storage.NewBaseEntity(),
		Model:      m.Clone(),
	}
}

func (m *snapshotModel) StorageIndexes() []string {
	return []string{indexLatest}
}

func (m *snapshotModel) MarshalStorage() ([]byte, error) {
	return storage.Marshal(m)
}

func (m *snapshotModel) UnmarshalStorage(data []byte) error {
	return storage.Unmarshal(data, m)
}

func newSnapshot(m *snapshotModel) *Snapshot {
	if m == nil {
		return nil
	}

	return &Snapshot{
		ID:        m.ID,
		Model:     m.Model,
		CreatedAt: m.CreatedAt,
	}
}
