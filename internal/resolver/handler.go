// Package resolver repairs references left dangling by a merge. Every missing
// element is looked up in the history of the branch, newest commit first, and
// its most recent file is copied back into the working tree.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/modelsync/modelsync/internal/grafico"
	"github.com/modelsync/modelsync/internal/model"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// History walks the commits of a branch, newest first.
type History interface {
	WalkCommits(ctx context.Context, ref string, fn func(*vcs.Snapshot) error) error
}

// Importer rebuilds the model from the working tree.
type Importer interface {
	Import() (*model.Model, []grafico.ProblemPair, error)
}

// Handler resolves the problem pairs of one import. It is used once per
// merge and is not safe for concurrent use.
type Handler struct {
	history  History
	fs       afero.Fs
	importer Importer
	logger   *zap.Logger

	problems []grafico.ProblemPair
	restored []RestoredObject
}

// New creates a Handler. fs is the working tree the importer reads from.
func New(history History, fs afero.Fs, importer Importer, logger *zap.Logger) *Handler {
	return &Handler{
		history:  history,
		fs:       fs,
		importer: importer,
		logger:   logger,
	}
}

// AddProblem queues an unresolved reference for repair.
func (h *Handler) AddProblem(p grafico.ProblemPair) {
	h.problems = append(h.problems, p)
}

// Resolve restores every missing element it can find in the history of ref
// and returns the reimported model. Restored elements may themselves
// reference deleted elements, so passes repeat until no new identifier shows
// up. Problems left afterwards are reported by HasProblems and ErrorMessages.
//
// A failure reading history aborts with ErrHistoryRead and leaves the working
// tree as it is. A failure writing one element is logged and does not stop
// the others.
func (h *Handler) Resolve(ctx context.Context, ref string) (*model.Model, error) {
	h.logger.Info("resolving missing objects",
		zap.String("ref", ref),
		zap.Int("problems", len(h.problems)))

	attempted := make(map[string]struct{})
	restored := make(map[string]RestoredObject)
	var order []string

	var m *model.Model
	for {
		ids := lo.Filter(h.missingIDs(), func(id string, _ int) bool {
			_, ok := attempted[id]
			return !ok
		})
		if len(ids) == 0 && m != nil {
			break
		}

		for _, id := range ids {
			attempted[id] = struct{}{}

			obj, found, err := h.restore(ctx, ref, id)
			if errors.Is(err, ErrRestoreFailed) {
				h.logger.Error("failed to restore object", zap.String("id", id), zap.Error(err))
				continue
			}
			if err != nil {
				h.logger.Error("failed to resolve missing objects", zap.Error(err))
				return nil, err
			}
			if !found {
				h.logger.Info("missing object not found in history", zap.String("id", id))
				continue
			}

			restored[id] = obj
			order = append(order, id)
		}

		var err error
		if m, h.problems, err = h.importer.Import(); err != nil {
			h.logger.Error("failed to reimport model", zap.Error(err))
			return nil, err
		}
	}

	h.restored = h.restored[:0]
	for _, id := range order {
		obj := restored[id]
		el, ok := m.Find(id)
		if !ok {
			continue
		}
		obj.Descriptor = el.Descriptor()
		h.restored = append(h.restored, obj)
	}

	h.logger.Info("missing objects resolved",
		zap.Int("restored", len(h.restored)),
		zap.Int("unresolved", len(h.problems)))

	return m, nil
}

// missingIDs returns the distinct missing identifiers in first-seen order.
func (h *Handler) missingIDs() []string {
	return lo.Uniq(lo.Map(h.problems, func(p grafico.ProblemPair, _ int) string { return p.MissingID }))
}

// restore walks history for the newest file of id and copies it, with any
// missing ancestor folder files, into the working tree.
func (h *Handler) restore(ctx context.Context, ref, id string) (RestoredObject, bool, error) {
	var (
		obj      RestoredObject
		found    bool
		writeErr error
	)

	err := h.history.WalkCommits(ctx, ref, func(s *vcs.Snapshot) error {
		files, err := s.Files()
		if err != nil {
			return err
		}

		p, ok := lo.Find(files, func(f string) bool { return grafico.IsElementPath(f, id) })
		if !ok {
			return nil
		}

		found = true
		obj = RestoredObject{ID: id, Path: p, Commit: s.Info().Hash}
		writeErr = h.copyFromSnapshot(s, p)

		return vcs.ErrStopWalk
	})
	if err != nil {
		return obj, false, fmt.Errorf("%w: %w", ErrHistoryRead, err)
	}
	if writeErr != nil {
		return obj, false, fmt.Errorf("%w: %s: %w", ErrRestoreFailed, id, writeErr)
	}

	if found {
		h.logger.Debug("object restored",
			zap.String("id", id),
			zap.String("path", obj.Path),
			zap.String("commit", obj.Commit))
	}

	return obj, found, nil
}

func (h *Handler) copyFromSnapshot(s *vcs.Snapshot, elementPath string) error {
	for _, folderFile := range grafico.FolderFilesFor(elementPath) {
		exists, err := afero.Exists(h.fs, filepath.FromSlash(folderFile))
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := h.copyFile(s, folderFile); err != nil {
			return err
		}
	}

	return h.copyFile(s, elementPath)
}

func (h *Handler) copyFile(s *vcs.Snapshot, p string) error {
	data, ok, err := s.ReadFile(p)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", p, os.ErrNotExist)
	}

	name := filepath.FromSlash(p)
	if err := h.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(h.fs, name, data, 0o644)
}

// HasProblems reports whether any reference is still unresolved.
func (h *Handler) HasProblems() bool {
	return len(h.problems) > 0
}

// Problems returns the unresolved references.
func (h *Handler) Problems() []grafico.ProblemPair {
	return slices.Clone(h.problems)
}

// ErrorMessages returns one diagnostic per unresolved reference.
func (h *Handler) ErrorMessages() []string {
	return lo.Map(h.problems, func(p grafico.ProblemPair, _ int) string {
		return fmt.Sprintf("missing object %q referenced as %s by %s %q", p.MissingID, p.Field, p.ParentType, p.ParentID)
	})
}

// ResolveStatus returns nil when every reference is resolved, otherwise one
// ErrUnresolvedReference per problem combined.
func (h *Handler) ResolveStatus() error {
	return multierr.Combine(lo.Map(h.ErrorMessages(), func(msg string, _ int) error {
		return fmt.Errorf("%w: %s", ErrUnresolvedReference, msg)
	})...)
}

// Restored returns the objects recovered by the last Resolve.
func (h *Handler) Restored() []RestoredObject {
	return slices.Clone(h.restored)
}

// RestoredAsString returns one descriptor per restored object, one per line.
func (h *Handler) RestoredAsString() string {
	return strings.Join(lo.Map(h.restored, func(o RestoredObject, _ int) string { return o.Descriptor }), "\n")
}
