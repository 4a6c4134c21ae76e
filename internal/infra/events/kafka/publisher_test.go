package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"consulardesk/internal/core"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishKeysByRecord(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w, topic: defaultTopic}
	at := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
	events := []core.ChangeEvent{
		{ID: "e1", Entity: core.EntityVisaApplication, Action: core.ActionCreate, RecordID: "TV005", OccurredAt: at},
		{ID: "e2", Entity: core.EntityVisaApplication, Action: core.ActionUpdate, RecordID: "TV005", Fields: []string{"status"}, OccurredAt: at},
	}
	if err := p.Publish(context.Background(), events); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "visa_application:TV005" {
		t.Fatalf("unexpected key %s", w.msgs[0].Key)
	}
	var decoded core.ChangeEvent
	if err := json.Unmarshal(w.msgs[1].Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Action != core.ActionUpdate || len(decoded.Fields) != 1 || decoded.Fields[0] != "status" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
	if string(w.msgs[1].Headers[1].Value) != "update" {
		t.Fatalf("unexpected action header %+v", w.msgs[1].Headers)
	}
}

func TestPublishWrapsWriterErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := &Publisher{writer: &recordingWriter{err: boom}, topic: defaultTopic}
	err := p.Publish(context.Background(), []core.ChangeEvent{{ID: "e1", Entity: core.EntityContact, RecordID: "1"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}

func TestPublishNothingIsNoop(t *testing.T) {
	w := &recordingWriter{err: errors.New("should not be called")}
	p := &Publisher{writer: w, topic: defaultTopic}
	if err := p.Publish(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewRequiresBrokers(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without brokers")
	}
	p, err := New(Config{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.Topic() != defaultTopic {
		t.Fatalf("unexpected topic %s", p.Topic())
	}
	_ = p.Close()
}
