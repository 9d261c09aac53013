package internal

import (
	"context"

	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"github.com/modelsync/modelsync/internal/config"
	"github.com/modelsync/modelsync/internal/journal"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/server"
	"github.com/modelsync/modelsync/internal/session"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/modelsync/modelsync/pkg/badgerfx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint and the CLI.
const Version = "0.1.0"

// Modules wires storage, configuration and the business modules. It starts
// no listeners, so one-shot commands can use it as well.
func Modules() fx.Option {
	return fx.Options(
		// CORE MODULES
		logger.Module(),
		badgerfx.Module(),
		validator.Module,
		//
		// APP MODULES
		config.Module(),
		vcs.Module(),
		//
		// BUSINESS MODULES
		session.Module(),
		journal.Module(),
		orchestrator.Module(),
	)
}

func Run() {
	fx.New(
		Modules(),
		logger.WithFxDefaultLogger(),
		healthfx.Module(),
		fiberfx.Module(),
		server.Module(),
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: Version, ReleaseID: 1} }),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, svc *orchestrator.Service, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("modelsync starting up", zap.String("repository", svc.Path()))
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("modelsync shutting down gracefully")
					return nil
				},
			})
		}),
	).Run()
}
