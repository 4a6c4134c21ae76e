package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"consulardesk/internal/blob"
	"consulardesk/internal/infra/persistence/memory"
	"consulardesk/pkg/domain"
)

const defaultSummaryTTL = 30 * time.Second

// Service exposes the consular collections, settings, dashboard, search and
// documents on top of a transactional store. Every operation is traced, timed,
// logged and, when it mutates state, audited.
type Service struct {
	store    PersistentStore
	logger   Logger
	clock    Clock
	metrics  MetricsRecorder
	tracer   Tracer
	audit    AuditRecorder
	events   EventPublisher
	index    SearchIndex
	cache    SummaryCache
	cacheTTL time.Duration
	timeout  time.Duration
	blobs    blob.Store
	newID    func() string

	visas        *Collection[VisaApplication]
	employees    *Collection[Employee]
	candidates   *Collection[Candidate]
	contacts     *Collection[Contact]
	appointments *Collection[Appointment]
	individuals  *Collection[Individual]
	articles     *Collection[Article]
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   noopLogger{},
		clock:    systemClock{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		audit:    noopAudit{},
		cacheTTL: defaultSummaryTTL,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.visas = newCollection(s, visaDescriptor())
	s.employees = newCollection(s, employeeDescriptor())
	s.candidates = newCollection(s, candidateDescriptor())
	s.contacts = newCollection(s, contactDescriptor())
	s.appointments = newCollection(s, appointmentDescriptor())
	s.individuals = newCollection(s, individualDescriptor())
	s.articles = newCollection(s, articleDescriptor())
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Blobs returns the configured document store, or nil.
func (s *Service) Blobs() blob.Store { return s.blobs }

// Close releases the store.
func (s *Service) Close() error { return s.store.Close() }

// Visas returns the visa application collection.
func (s *Service) Visas() *Collection[VisaApplication] { return s.visas }

// Employees returns the employee collection.
func (s *Service) Employees() *Collection[Employee] { return s.employees }

// Candidates returns the recruitment candidate collection.
func (s *Service) Candidates() *Collection[Candidate] { return s.candidates }

// Contacts returns the contact directory collection.
func (s *Service) Contacts() *Collection[Contact] { return s.contacts }

// Appointments returns the appointment collection.
func (s *Service) Appointments() *Collection[Appointment] { return s.appointments }

// Individuals returns the in-country individual collection.
func (s *Service) Individuals() *Collection[Individual] { return s.individuals }

// Articles returns the article collection.
func (s *Service) Articles() *Collection[Article] { return s.articles }

// instrument runs fn under the operation timeout and reports the outcome to
// the tracer, metrics, audit and logger. fn returns the affected record id.
func (s *Service) instrument(ctx context.Context, operation string, entity EntityType, action Action, fn func(context.Context) (string, error)) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	entityID, err := fn(ctx)
	duration := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if action != "" {
		s.recordAudit(ctx, operation, entity, action, entityID, err, duration)
	}
	switch {
	case err == nil:
		s.logger.Debug("operation completed", "operation", operation, "entity", entity, "id", entityID, "duration", duration)
	case KindOf(err) == KindInternal:
		s.logger.Error("operation failed", "operation", operation, "entity", entity, "id", entityID, "error", err)
	default:
		s.logger.Info("operation rejected", "operation", operation, "entity", entity, "id", entityID, "error", err)
	}
	return err
}

func (s *Service) recordAudit(ctx context.Context, operation string, entity EntityType, action Action, entityID string, err error, duration time.Duration) {
	entry := AuditEntry{
		ID:        s.newID(),
		Operation: operation,
		Entity:    entity,
		Action:    action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// afterCommit fans committed changes out to the search index, the event
// publisher and the dashboard cache. Failures are logged, never returned.
func (s *Service) afterCommit(ctx context.Context, changes []Change, project func(any) (SearchDocument, bool)) {
	s.invalidateSummary(ctx)
	if s.index != nil && project != nil {
		for _, change := range changes {
			var err error
			if change.Action == ActionDelete {
				err = s.index.Remove(ctx, change.Entity, change.RecordID())
			} else if doc, ok := project(change.After); ok {
				err = s.index.Index(ctx, []SearchDocument{doc})
			}
			if err != nil {
				s.logger.Warn("search index update failed", "entity", change.Entity, "id", change.RecordID(), "error", err)
			}
		}
	}
	if s.events == nil || len(changes) == 0 {
		return
	}
	now := s.clock.Now()
	events := make([]ChangeEvent, 0, len(changes))
	for _, change := range changes {
		event := ChangeEvent{
			ID:         s.newID(),
			Entity:     change.Entity,
			Action:     change.Action,
			RecordID:   change.RecordID(),
			Before:     change.Before,
			After:      change.After,
			OccurredAt: now,
		}
		if change.Action == ActionUpdate {
			if fields, err := domain.ChangedFields(change.Before, change.After); err == nil {
				event.Fields = fields
			}
		}
		events = append(events, event)
	}
	if err := s.events.Publish(ctx, events); err != nil {
		s.logger.Warn("change event publish failed", "events", len(events), "error", err)
	}
}
