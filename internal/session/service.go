package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/modelsync/modelsync/internal/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Session holds the model being edited. Edits mark it dirty until it is
// saved or replaced by a synchronization.
type Session struct {
	snapshots *Repository
	logger    *zap.Logger

	mu    sync.RWMutex
	model *model.Model
	dirty bool
	holds int
}

// NewSession restores the latest snapshot or starts an empty model.
func NewSession(config Config, snapshots *Repository, logger *zap.Logger) (*Session, error) {
	s := &Session{
		snapshots: snapshots,
		logger:    logger,
	}

	latest, err := snapshots.Latest(context.Background())
	switch {
	case errors.Is(err, ErrNotFound):
		name := lo.CoalesceOrEmpty(config.ModelName, "Model")
		s.model = model.New(uuid.Must(uuid.NewV7()).String(), name)
		logger.Info("starting empty model", zap.String("id", s.model.ID), zap.String("name", name))
	case err != nil:
		return nil, err
	default:
		s.model = latest.Model
		logger.Info("model restored",
			zap.String("id", s.model.ID),
			zap.String("snapshot", latest.ID.String()))
	}

	return s, nil
}

// IsDirty reports whether the model has unsaved edits.
func (s *Session) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dirty
}

// Model returns a copy of the current model.
func (s *Session) Model() *model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.model.Clone()
}

// Save persists the current model.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.snapshots.Save(ctx, s.model)
	if err != nil {
		s.logger.Error("failed to save model", zap.Error(err))
		return err
	}
	s.dirty = false

	s.logger.Info("model saved", zap.String("snapshot", snapshot.ID.String()))
	return nil
}

// Replace swaps in a model loaded from the repository and persists it.
func (s *Session) Replace(ctx context.Context, m *model.Model) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.snapshots.Save(ctx, m); err != nil {
		s.logger.Error("failed to save model", zap.Error(err))
		return err
	}
	s.model = m.Clone()
	s.dirty = false

	s.logger.Info("model replaced",
		zap.String("id", m.ID),
		zap.Int("elements", len(m.Elements())))
	return nil
}

// Hold rejects edits with ErrBusy until every returned release has been
// called. Releasing twice has no effect.
func (s *Session) Hold() func() {
	s.mu.Lock()
	s.holds++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.holds--
			s.mu.Unlock()
		})
	}
}

// Element returns a copy of the element with the given id.
func (s *Session) Element(id string) (*model.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.model.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.Clone(), nil
}

// PutElement creates or replaces an element. A new element goes into folderID;
// an existing one moves there when folderID is set.
func (s *Session) PutElement(e *model.Element, folderID string) error {
	return s.update(func(m *model.Model) error {
		var target *model.Folder
		if folderID != "" {
			f, ok := m.FindFolder(folderID)
			if !ok {
				return fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
			}
			target = f
		}

		if existing, ok := m.ParentOf(e.ID); ok {
			if target == nil {
				target = existing
			}
			m.Remove(e.ID)
		}
		if target == nil {
			return fmt.Errorf("%w: element %s needs a folder", ErrFolderNotFound, e.ID)
		}

		for field, ref := range e.References {
			if _, ok := m.Find(ref); !ok && ref != e.ID {
				return fmt.Errorf("%w: %s references missing %q", ErrInvalid, field, ref)
			}
		}

		target.AddElement(e.Clone())
		return nil
	})
}

// DeleteElement removes an element nothing references.
func (s *Session) DeleteElement(id string) error {
	return s.update(func(m *model.Model) error {
		if _, ok := m.Find(id); !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		referrers := m.ReferrersOf(id)
		if len(referrers) > 0 {
			return fmt.Errorf("%w: %s by %s", ErrReferenced, id, referrers[0].ID)
		}

		m.Remove(id)
		return nil
	})
}

// Snapshots lists the saved snapshots, newest first.
func (s *Session) Snapshots(ctx context.Context) ([]Snapshot, error) {
	return s.snapshots.List(ctx)
}

func (s *Session) update(fn func(m *model.Model) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.holds > 0 {
		return ErrBusy
	}

	next := s.model.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.model = next
	s.dirty = true

	return nil
}
