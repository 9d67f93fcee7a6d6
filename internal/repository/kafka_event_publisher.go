package repository

import (
	"context"

	"DiabScreen/internal/domain/models"
	domrepo "DiabScreen/internal/domain/repository"
	pkgkafka "DiabScreen/pkg/kafka"
)

// keyedProducer is the part of the Kafka producer the publisher needs.
type keyedProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

var _ keyedProducer = (*pkgkafka.Producer)(nil)

// KafkaEventPublisher publishes screening events keyed by event id.
type KafkaEventPublisher struct {
	producer keyedProducer
	topic    string
	owned    bool
}

var _ domrepo.EventSink = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher publishes to topic. When owned is true Close also
// closes the producer; pass false when the producer is shared.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string, owned bool) *KafkaEventPublisher {
	if producer == nil {
		return newKafkaEventPublisher(nil, topic, owned)
	}
	return newKafkaEventPublisher(producer, topic, owned)
}

func newKafkaEventPublisher(producer keyedProducer, topic string, owned bool) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic, owned: owned}
}

func (p *KafkaEventPublisher) Name() string { return "kafka" }

func (p *KafkaEventPublisher) Send(ctx context.Context, ev *models.ScreeningEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.ID), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil && p.owned {
		return p.producer.Close()
	}
	return nil
}
