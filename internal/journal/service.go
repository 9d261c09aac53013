package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/resolver"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const defaultRetain = 500

type Service struct {
	runs   *Repository
	retain int

	logger *zap.Logger
}

func NewService(config Config, runs *Repository, logger *zap.Logger) *Service {
	return &Service{
		runs:   runs,
		retain: lo.Ternary(config.Retain > 0, config.Retain, defaultRetain),

		logger: logger,
	}
}

// Record stores a finished pipeline run.
func (s *Service) Record(ctx context.Context, result *orchestrator.Result, runErr error) error {
	id, err := uuid.Parse(result.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	draft := RunDraft{
		Operation:   string(result.Operation),
		Repository:  result.Repository,
		State:       string(result.State),
		Transitions: lo.Map(result.Transitions, func(s orchestrator.State, _ int) string { return string(s) }),
		PreMerge:    result.PreMerge,
		Commits:     result.Commits,
		Restored:    lo.Map(result.Restored, func(o resolver.RestoredObject, _ int) string { return o.Descriptor }),
		Conflicts:   lo.Map(result.Conflicts, func(c orchestrator.Conflict, _ int) string { return c.Path }),
		Problems:    result.Problems,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
	}
	if runErr != nil {
		draft.Error = runErr.Error()
	}

	run, err := s.runs.Create(ctx, id, &draft)
	if err != nil {
		s.logger.Error("failed to record run", zap.String("id", result.ID), zap.Error(err))
		return err
	}

	s.logger.Debug("run recorded",
		zap.String("id", run.ID.String()),
		zap.String("operation", run.Operation),
		zap.String("state", run.State))

	pruned, err := s.runs.Prune(ctx, s.retain)
	if err != nil {
		s.logger.Warn("failed to prune runs", zap.Error(err))
	} else if pruned > 0 {
		s.logger.Info("old runs pruned", zap.Int("count", pruned))
	}

	return nil
}

// Get retrieves a run by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	return s.runs.GetByID(ctx, id)
}

// List returns up to limit runs, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Run, error) {
	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		return nil, err
	}
	return runs, nil
}

// ListByOperation returns the runs of one operation, newest first.
func (s *Service) ListByOperation(ctx context.Context, operation orchestrator.Operation) ([]Run, error) {
	runs, err := s.runs.ListByOperation(ctx, string(operation))
	if err != nil {
		s.logger.Error("failed to list runs", zap.String("operation", string(operation)), zap.Error(err))
		return nil, err
	}
	return runs, nil
}

var _ orchestrator.Recorder = (*Service)(nil)
