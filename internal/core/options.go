package core

import (
	"context"
	"time"

	"consulardesk/internal/blob"
)

// Logger is the structured logger used by the service. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan is ended once per started operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

func (noopSpan) End(error) {}

// AuditStatus is the outcome recorded for an audited operation.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry is one audited mutation.
type AuditEntry struct {
	ID        string        `json:"id"`
	Operation string        `json:"operation"`
	Entity    EntityType    `json:"entity"`
	Action    Action        `json:"action"`
	EntityID  string        `json:"entity_id,omitempty"`
	Status    AuditStatus   `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// AuditRecorder receives audit entries for every mutating operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

// ChangeEvent describes a committed record mutation.
type ChangeEvent struct {
	ID         string     `json:"id"`
	Entity     EntityType `json:"entity"`
	Action     Action     `json:"action"`
	RecordID   string     `json:"record_id"`
	Fields     []string   `json:"fields,omitempty"`
	Before     any        `json:"before,omitempty"`
	After      any        `json:"after,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// EventPublisher forwards committed changes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events []ChangeEvent) error
}

// SearchHit is one global search result.
type SearchHit struct {
	Type        EntityType `json:"type"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Date        string     `json:"date,omitempty"`
	URL         string     `json:"url"`
}

// SearchDocument is the indexed form of a record.
type SearchDocument struct {
	SearchHit
	// Text holds the searchable fields joined by newlines.
	Text string `json:"text"`
	Seq  int64  `json:"seq"`
}

// SearchIndex is an external full text index kept in step with commits.
type SearchIndex interface {
	Index(ctx context.Context, docs []SearchDocument) error
	Remove(ctx context.Context, entity EntityType, id string) error
	Query(ctx context.Context, text string, limit int) ([]SearchHit, error)
}

// SummaryCache stores rendered dashboard summaries.
type SummaryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for defaults, audit and the dashboard.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the span tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(a AuditRecorder) Option {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}

// WithEventPublisher publishes change events after every commit.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithSearchIndex keeps idx updated and uses it for global search.
func WithSearchIndex(idx SearchIndex) Option {
	return func(s *Service) { s.index = idx }
}

// WithSummaryCache caches dashboard summaries for ttl.
func WithSummaryCache(c SummaryCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithOperationTimeout bounds every operation; zero disables the bound.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithBlobStore sets the document store.
func WithBlobStore(b blob.Store) Option {
	return func(s *Service) { s.blobs = b }
}
