package vcs

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"vcs",
		logger.WithNamedLogger("vcs"),
		fx.Provide(NewService),
	)
}
