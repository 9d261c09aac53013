package orchestrator

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Notifiers fans an event out to several sinks.
type Notifiers []Notifier

func (n Notifiers) Notify(event Event) {
	for _, sink := range n {
		sink.Notify(event)
	}
}

// LogNotifier writes events to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(event Event) {
	n.logger.Info("repository event",
		zap.String("kind", string(event.Kind)),
		zap.String("repository", event.Repository),
		zap.String("operation", string(event.Operation)))
}

// EventLog keeps the most recent events in memory.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

func NewEventLog(limit int) *EventLog {
	if limit <= 0 {
		limit = 100
	}
	return &EventLog{limit: limit}
}

func (l *EventLog) Notify(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	if over := len(l.events) - l.limit; over > 0 {
		l.events = slices.Delete(l.events, 0, over)
	}
}

// Events returns the retained events, newest last.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.events)
}
