package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newSeededService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc := NewInMemoryService(NewDefaultRulesEngine(), opts...)
	if err := Seed(context.Background(), svc, DefaultSampleData()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}

func fixedClock(ts string) Clock {
	at, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return ClockFunc(func() time.Time { return at })
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
	deletes int
}

func newMemoryCache() *memoryCache { return &memoryCache{entries: make(map[string][]byte)} }

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = append([]byte(nil), value...)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (p *capturePublisher) Publish(_ context.Context, events []ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) last() ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return ChangeEvent{}
	}
	return p.events[len(p.events)-1]
}
