package badgerfx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const gcDiscardRatio = 0.5

func Module() fx.Option {
	return fx.Module(
		"badgerfx",
		logger.WithNamedLogger("badgerfx"),
		fx.Provide(newLogger, fx.Private),
		fx.Provide(New),
		fx.Invoke(func(db *badger.DB, config Config, logger *zap.Logger, lifecycle fx.Lifecycle) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			lifecycle.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("starting badger module", zap.Bool("in_memory", config.InMemory))
					go func() {
						defer close(done)
						collectGarbage(ctx, db, config.GCInterval, logger)
					}()
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("stopping badger module")
					cancel()
					<-done
					if err := db.Close(); err != nil {
						return fmt.Errorf("failed to close BadgerDB: %w", err)
					}
					return nil
				},
			})
		}),
	)
}

func New(config Config, logger *zapLogger) (*badger.DB, error) {
	db, err := badger.Open(config.Build().WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return db, nil
}

// collectGarbage rewrites value log files until ctx is done. In-memory
// databases have no value log.
func collectGarbage(ctx context.Context, db *badger.DB, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 || db.Opts().InMemory {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			err := db.RunValueLogGC(gcDiscardRatio)
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			if err != nil {
				logger.Warn("value log gc failed", zap.Error(err))
				break
			}
		}
	}
}
