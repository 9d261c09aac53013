package journal

import (
	"github.com/go-core-fx/logger"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"journal",
		logger.WithNamedLogger("journal"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewService),
		fx.Provide(func(s *Service) orchestrator.Recorder { return s }),
	)
}
