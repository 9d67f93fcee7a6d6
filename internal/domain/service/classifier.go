package service

import (
	"context"
	"time"

	"DiabScreen/internal/domain/models"
)

// Classifier returns the probability of the positive class for one row.
type Classifier interface {
	PredictProba(ctx context.Context, vec models.FeatureVector) (float64, error)
}

// Bundle holds the loaded artifacts. It is built once at startup and only read afterwards.
type Bundle struct {
	Model     Classifier
	Threshold float64
	Version   string
	LoadedAt  time.Time
}

// EventQueue accepts screening events for asynchronous delivery.
// Enqueue must not block the caller.
type EventQueue interface {
	Enqueue(ev *models.ScreeningEvent) bool
}
