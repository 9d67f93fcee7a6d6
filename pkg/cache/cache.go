// Package cache provides short-lived counters shared by request throttling.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClosed = errors.New("cache: closed")
)

// Counter increments per-key counters that reset after a fixed window.
type Counter interface {
	// IncrWindow increments key and returns the new count. The first increment
	// of a key starts its window; the key expires when the window ends.
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
