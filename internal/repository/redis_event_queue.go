package repository

import (
	"context"

	"DiabScreen/internal/domain/models"
	domrepo "DiabScreen/internal/domain/repository"
	"DiabScreen/pkg/queue"
)

// ScreeningMessageType is the queue message type for screening events.
const ScreeningMessageType = "screening"

// RedisEventQueue pushes screening events onto a Redis list for downstream workers.
type RedisEventQueue struct {
	queue queue.QueueService
}

var _ domrepo.EventSink = (*RedisEventQueue)(nil)

func NewRedisEventQueue(q queue.QueueService) *RedisEventQueue {
	return &RedisEventQueue{queue: q}
}

func (r *RedisEventQueue) Name() string { return "redis" }

func (r *RedisEventQueue) Send(ctx context.Context, ev *models.ScreeningEvent) error {
	return r.queue.PublishMessage(ctx, ScreeningMessageType, ev)
}

// Close is a no-op; the Redis client is shared and closed by its owner.
func (r *RedisEventQueue) Close() error { return nil }
