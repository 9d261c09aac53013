package session

import (
	"github.com/go-core-fx/logger"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"session",
		logger.WithNamedLogger("session"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewSession),
		fx.Provide(func(s *Session) orchestrator.ModelStore { return s }),
	)
}
