package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/modelsync/modelsync/internal/storage"
)

// runModel is the stored form of a Run.
type runModel struct {
	storage.BaseEntity

	Operation  string `json:"operation"`
	Repository string `json:"repository"`

	State       string   `json:"state"`
	Transitions []string `json:"transitions"`
	PreMerge    string   `json:"pre_merge,omitempty"`
	Commits     []string `json:"commits"`
	Restored    []string `json:"restored"`
	Conflicts   []string `json:"conflicts"`
	Problems    []string `json:"problems"`
	Error       string   `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newRunModel(id uuid.UUID, draft *RunDraft) *runModel {
	base := storage.NewBaseEntity()
	base.ID = id

	return &runModel{
		BaseEntity:  base,
		Operation:   draft.Operation,
		Repository:  draft.Repository,
		State:       draft.State,
		Transitions: draft.Transitions,
		PreMerge:    draft.PreMerge,
		Commits:     draft.Commits,
		Restored:    draft.Restored,
		Conflicts:   draft.Conflicts,
		Problems:    draft.Problems,
		Error:       draft.Error,
		StartedAt:   draft.StartedAt,
		FinishedAt:  draft.FinishedAt,
	}
}

func (m *runModel) StorageIndexes() []string {
	return []string{operationIndex(m.Operation, m.ID)}
}

func (m *runModel) MarshalStorage() ([]byte, error) {
	return storage.Marshal(m)
}

func (m *runModel) UnmarshalStorage(data []byte) error {
	return storage.Unmarshal(data, m)
}

func newRun(model *runModel) *Run {
	if model == nil {
		return nil
	}

	return &Run{
		RunDraft: RunDraft{
			Operation:   model.Operation,
			Repository:  model.Repository,
			State:       model.State,
			Transitions: model.Transitions,
			PreMerge:    model.PreMerge,
			Commits:     model.Commits,
			Restored:    model.Restored,
			Conflicts:   model.Conflicts,
			Problems:    model.Problems,
			Error:       model.Error,
			StartedAt:   model.StartedAt,
			FinishedAt:  model.FinishedAt,
		},
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
	}
}
