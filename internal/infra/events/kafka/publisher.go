// Package kafka publishes committed record changes to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"consulardesk/internal/core"
)

const defaultTopic = "consulardesk.changes"

// Config describes the brokers and topic.
type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher implements core.EventPublisher.
type Publisher struct {
	writer messageWriter
	topic  string
}

// New builds a publisher. The brokers are not contacted until the first write.
func New(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, topic: topic}, nil
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string { return p.topic }

// Publish writes one message per event keyed by entity and record id so a
// record's changes stay ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, events []core.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(string(ev.Entity) + ":" + ev.RecordID),
			Value: payload,
			Time:  ev.OccurredAt,
			Headers: []kafkago.Header{
				{Key: "entity", Value: []byte(ev.Entity)},
				{Key: "action", Value: []byte(ev.Action)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error { return p.writer.Close() }
