package cache

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	n        int64
	expireAt time.Time
}

// MemoryCounter implements Counter in process memory.
type MemoryCounter struct {
	mu      sync.Mutex
	data    map[string]*counter
	maxKeys int
	now     func() time.Time

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewMemoryCounter creates an in-memory counter store with background expiry.
func NewMemoryCounter(opts ...MemoryOption) *MemoryCounter {
	cfg := &MemoryConfig{
		MaxKeys:         10000,
		CleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCounter{
		data:    make(map[string]*counter),
		maxKeys: cfg.MaxKeys,
		now:     time.Now,
		ticker:  time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}
	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCounter) IncrWindow(_ context.Context, key string, window time.Duration) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	select {
	case <-mc.done:
		return 0, ErrClosed
	default:
	}

	now := mc.now()
	c, ok := mc.data[key]
	if !ok || !now.Before(c.expireAt) {
		if !ok && len(mc.data) >= mc.maxKeys {
			mc.evictLocked(now)
		}
		c = &counter{expireAt: now.Add(window)}
		mc.data[key] = c
	}
	c.n++
	return c.n, nil
}

func (mc *MemoryCounter) Ping(context.Context) error {
	select {
	case <-mc.done:
		return ErrClosed
	default:
		return nil
	}
}

// evictLocked drops expired counters, or the one closest to expiry when none are.
func (mc *MemoryCounter) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, c := range mc.data {
		if !now.Before(c.expireAt) {
			delete(mc.data, key)
			continue
		}
		if oldestKey == "" || c.expireAt.Before(oldestAt) {
			oldestKey, oldestAt = key, c.expireAt
		}
	}
	if len(mc.data) >= mc.maxKeys && oldestKey != "" {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCounter) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.ticker.C:
			mc.mu.Lock()
			now := mc.now()
			for key, c := range mc.data {
				if !now.Before(c.expireAt) {
					delete(mc.data, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCounter) Close() error {
	mc.once.Do(func() {
		mc.ticker.Stop()
		close(mc.done)
	})
	return nil
}
