package orchestrator

import (
	"github.com/go-core-fx/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"orchestrator",
		logger.WithNamedLogger("orchestrator"),
		fx.Provide(func() *Metrics { return NewMetrics(prometheus.DefaultRegisterer) }, fx.Private),
		fx.Provide(func(cfg Config) CredentialProvider { return StaticCredentials(cfg.Credentials) }, fx.Private),
		fx.Provide(func(cfg Config) *EventLog { return NewEventLog(cfg.EventHistory) }),
		fx.Provide(func(events *EventLog, logger *zap.Logger) Notifier {
			return Notifiers{NewLogNotifier(logger), events}
		}, fx.Private),
		fx.Provide(NewService),
	)
}
