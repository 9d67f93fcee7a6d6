package ratelimit

import (
	"context"
	"time"

	"DiabScreen/pkg/cache"
)

// FixedWindow allows at most limit requests per key in each window.
// It shares state through a cache.Counter, so a Redis counter makes the
// limit global across replicas.
type FixedWindow struct {
	counter cache.Counter
	limit   int64
	window  time.Duration
}

func NewFixedWindow(counter cache.Counter, limit int64, window time.Duration) *FixedWindow {
	return &FixedWindow{counter: counter, limit: limit, window: window}
}

func (w *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	n, err := w.counter.IncrWindow(ctx, "ratelimit:"+key, w.window)
	if err != nil {
		return false, err
	}
	return n <= w.limit, nil
}
