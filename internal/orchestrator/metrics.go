package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	restored  prometheus.Counter
	conflicts prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelsync",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by operation and terminal state.",
		}, []string{"operation", "state"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "modelsync",
			Name:      "pipeline_duration_seconds",
			Help:      "Pipeline run duration by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		restored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "modelsync",
			Name:      "restored_objects_total",
			Help:      "Objects recovered from history during conflict resolution.",
		}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "modelsync",
			Name:      "merge_conflicts_total",
			Help:      "Conflicting paths reported by merges.",
		}),
	}
}

func (m *Metrics) observe(result *Result) {
	if m == nil || result == nil {
		return
	}

	m.runs.WithLabelValues(string(result.Operation), string(result.State)).Inc()
	m.duration.WithLabelValues(string(result.Operation)).Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	m.restored.Add(float64(len(result.Restored)))
	m.conflicts.Add(float64(len(result.Conflicts)))
}
