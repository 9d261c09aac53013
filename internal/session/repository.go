package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/modelsync/modelsync/internal/model"
	"github.com/modelsync/modelsync/pkg/badgerfx"
	"github.com/samber/lo"
)

const (
	prefix = "session:"

	prefixSnapshot = prefix + "snapshot:"
	indexLatest    = prefix + "latest"

	defaultSnapshots = 10
)

// Repository stores model snapshots in badger, newest reachable via an index.
type Repository struct {
	db        *badger.DB
	snapshots *badgerfx.Repository[*snapshotModel]
	keep      int
}

func NewRepository(db *badger.DB, config Config) *Repository {
	return &Repository{
		db:        db,
		snapshots: badgerfx.NewRepository(prefixSnapshot, func() *snapshotModel { return new(snapshotModel) }),
		keep:      lo.Ternary(config.Snapshots > 0, config.Snapshots, defaultSnapshots),
	}
}

// Latest returns the most recent snapshot.
func (r *Repository) Latest(_ context.Context) (*Snapshot, error) {
	var snapshot *snapshotModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.snapshots.ReadByIndex(txn, indexLatest)
		if err == nil {
			snapshot = found
		}
		return err
	})
	if errors.Is(err, badgerfx.ErrNotFound) {
		return nil, fmt.Errorf("%w: no snapshot", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return newSnapshot(snapshot), nil
}

// Save stores m as the newest snapshot and drops snapshots beyond the limit.
func (r *Repository) Save(_ context.Context, m *model.Model) (*Snapshot, error) {
	snapshot := newSnapshotModel(m)

	err := r.db.Update(func(txn *badger.Txn) error {
		if err := r.snapshots.Write(txn, snapshot); err != nil {
			return err
		}
		return r.prune(txn)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	return newSnapshot(snapshot), nil
}

// List returns the kept snapshots, newest first.
func (r *Repository) List(_ context.Context) ([]Snapshot, error) {
	var snapshots []*snapshotModel

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		snapshots, err = r.snapshots.List(txn, reverseIterator())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	return lo.Map(snapshots, func(m *snapshotModel, _ int) Snapshot { return *newSnapshot(m) }), nil
}

func (r *Repository) prune(txn *badger.Txn) error {
	snapshots, err := r.snapshots.List(txn, reverseIterator())
	if err != nil {
		return err
	}
	if len(snapshots) <= r.keep {
		return nil
	}

	// Old snapshots are deleted by key: the latest index belongs to the newest.
	for _, old := range snapshots[r.keep:] {
		if delErr := txn.Delete(r.snapshots.Key(old.StorageID())); delErr != nil {
			return fmt.Errorf("failed to delete snapshot: %w", delErr)
		}
	}

	return nil
}

func reverseIterator() badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchSize = 10
	return opts
}
