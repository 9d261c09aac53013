package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/modelsync/modelsync/pkg/badgerfx"
)

const (
	prefix = "run:"

	prefixByID        = prefix + "id:"
	prefixByOperation = prefix + "operation:"
)

// Repository stores runs keyed by their time-ordered id.
type Repository struct {
	db   *badger.DB
	runs *badgerfx.Repository[*runModel]
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db:   db,
		runs: badgerfx.NewRepository(prefixByID, func() *runModel { return new(runModel) }),
	}
}

// Create stores a run under id.
func (r *Repository) Create(_ context.Context, id uuid.UUID, draft *RunDraft) (*Run, error) {
	model := newRunModel(id, draft)

	err := r.db.Update(func(txn *badger.Txn) error {
		if _, getErr := txn.Get(r.runs.Key(model.StorageID())); getErr == nil {
			return fmt.Errorf("%w: run %s already recorded", ErrInvalid, id)
		} else if !errors.Is(getErr, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check run: %w", getErr)
		}

		return r.runs.Write(txn, model)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return newRun(model), nil
}

// GetByID retrieves a run by its id.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Run, error) {
	var run *runModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.runs.Read(txn, id.String())
		if err == nil {
			run = found
		}
		return err
	})
	if errors.Is(err, badgerfx.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return newRun(run), nil
}

// List returns up to limit runs, newest first. A non-positive limit returns all.
func (r *Repository) List(_ context.Context, limit int) ([]Run, error) {
	var runs []Run

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchSize = 10

		models, err := r.runs.List(txn, opts)
		if err != nil {
			return err
		}
		for _, m := range models {
			if limit > 0 && len(runs) == limit {
				break
			}
			runs = append(runs, *newRun(m))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// ListByOperation returns the runs of one operation, newest first.
func (r *Repository) ListByOperation(_ context.Context, operation string) ([]Run, error) {
	var runs []Run

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixByOperation + operation + ":")
		for it.Seek(append(prefix, badgerfx.SeekEnd)); it.ValidForPrefix(prefix); it.Next() {
			run, err := r.runs.ReadByIndex(txn, string(it.Item().KeyCopy(nil)))
			if err != nil {
				return fmt.Errorf("failed to read run: %w", err)
			}
			runs = append(runs, *newRun(run))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// Prune removes every run except the keep most recent ones.
func (r *Repository) Prune(_ context.Context, keep int) (int, error) {
	deleted := 0

	err := r.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		models, err := r.runs.List(txn, opts)
		if err != nil {
			return err
		}
		if len(models) <= keep {
			return nil
		}

		for _, m := range models[keep:] {
			if delErr := r.runs.Delete(txn, m.StorageID()); delErr != nil {
				return delErr
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}

	return deleted, nil
}

// operationIndex is `run:operation:<operation>:<id>`, ordered by id.
func operationIndex(operation string, id uuid.UUID) string {
	return prefixByOperation + operation + ":" + id.String()
}
