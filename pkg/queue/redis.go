package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue pushes messages onto capped Redis lists, one list per message type.
// Consumers BRPOP the list; the queue itself only publishes.
type RedisQueue struct {
	client    *redis.Client
	keyPrefix string
	maxLen    int64
	now       func() time.Time
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		r.keyPrefix = prefix
	}
}

// WithMaxLen caps each list; older entries are trimmed. Zero keeps everything.
func WithMaxLen(n int64) RedisQueueOption {
	return func(r *RedisQueue) {
		r.maxLen = n
	}
}

// NewRedisPublisher creates a publisher over an existing client. The caller owns the client.
func NewRedisPublisher(client *redis.Client, opts ...RedisQueueOption) *RedisQueue {
	q := &RedisQueue{
		client:    client,
		keyPrefix: "diabscreen:queue",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Key returns the list key for msgType.
func (r *RedisQueue) Key(msgType string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, msgType)
}

// PublishMessage publishes a message (implements QueueService).
func (r *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	data, err := newMessage(uuid.NewString(), msgType, payload, r.now())
	if err != nil {
		return err
	}

	key := r.Key(msgType)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if r.maxLen > 0 {
		pipe.LTrim(ctx, key, 0, r.maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	return nil
}

func (r *RedisQueue) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
