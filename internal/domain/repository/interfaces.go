package repository

import (
	"context"

	"DiabScreen/internal/domain/models"
)

// EventSink receives screening events from the dispatcher.
type EventSink interface {
	Name() string
	Send(ctx context.Context, ev *models.ScreeningEvent) error
	Close() error
}

// EventStore persists screening events for later analysis.
type EventStore interface {
	EventSink
	Init(ctx context.Context) error
}

type Metrics interface {
	RecordScreening(label string, probability float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordArtifactFetch(artifact string, bytes int64, seconds float64)
	RecordEvent(sink, result string)
}
