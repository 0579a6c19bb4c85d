// Package kafka publishes committed order status changes to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/order"

	"github.com/IBM/sarama"
)

// statusChangedMessage is the wire format of one status-change notification.
type statusChangedMessage struct {
	OrderID    string  `json:"order_id"`
	EventID    string  `json:"event_id"`
	Seq        int64   `json:"seq"`
	From       *string `json:"from,omitempty"`
	To         string  `json:"to"`
	ActorKind  string  `json:"actor_kind"`
	ActorID    string  `json:"actor_id,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}

// Producer publishes status-change notifications using a synchronous Kafka
// producer. Messages are keyed by order id so consumers observe each order's
// changes in sequence order.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects to the given brokers and returns a ready Producer.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Return.Successes = true // Must be true for SyncProducer
	config.Net.DialTimeout = 30 * time.Second
	config.Net.ReadTimeout = 30 * time.Second
	config.Net.WriteTimeout = 30 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return NewProducerWithClient(producer, topic), nil
}

// NewProducerWithClient wraps an existing SyncProducer. Used by tests and by
// callers that manage the Kafka client themselves.
func NewProducerWithClient(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

// PublishStatusChanged sends one committed status change to the topic.
func (p *Producer) PublishStatusChanged(
	_ context.Context, aggregate *order.Order, event order.TimelineEvent,
) error {
	message := statusChangedMessage{
		OrderID:    aggregate.ID().String(),
		EventID:    event.ID().String(),
		Seq:        event.Seq(),
		To:         event.To().String(),
		ActorKind:  event.Actor().Kind().String(),
		ActorID:    event.Actor().ID(),
		Reason:     event.Reason(),
		OccurredAt: event.OccurredAt().Format(time.RFC3339),
	}
	if from := event.From(); from != nil {
		fromStatus := from.String()
		message.From = &fromStatus
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode status change: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(message.OrderID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish status change: %w", err)
	}

	return nil
}

// Close shuts down the underlying Kafka producer.
func (p *Producer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
