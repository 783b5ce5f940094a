package repository

import (
	"context"

	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"

	"github.com/segmentio/kafka-go"
)

// producer is the slice of *pkgkafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers ...kafka.Header) error
	Close() error
}

var (
	_ domrepo.EventPublisher = (*KafkaPublisher)(nil)
	_ domrepo.EventPublisher = NoopPublisher{}
)

// KafkaPublisher emits one message per stored winner, keyed by date.
type KafkaPublisher struct {
	producer producer
	topic    string
}

func NewKafkaPublisher(p producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) PublishWinner(ctx context.Context, ev models.WinnerEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.PartitionKey+":"+ev.Date), ev,
		kafka.Header{Key: "run_id", Value: []byte(ev.RunID)},
		kafka.Header{Key: "mode", Value: []byte(ev.Mode)},
	)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishWinner(context.Context, models.WinnerEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
