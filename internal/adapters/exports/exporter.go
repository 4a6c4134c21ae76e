// Package exports renders filtered collections to downloadable artifacts on a
// background worker.
package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"consulardesk/internal/blob"
	"consulardesk/internal/core"
)

// Format is an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// DefaultRetention is how long finished jobs are kept by default.
const DefaultRetention = 24 * time.Hour

// ErrQueueFull is returned when the worker cannot accept more jobs.
var ErrQueueFull = errors.New("export queue full")

// InputError reports an export request that can never succeed.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// ExportArtifact captures a stored export file.
type ExportArtifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Rows        int       `json:"rows"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExportRecord tracks an export request and resulting artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	Collection  string           `json:"collection"`
	Query       core.Query       `json:"query"`
	Formats     []Format         `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	Collection  string     `json:"collection"`
	Query       core.Query `json:"query"`
	Formats     []Format   `json:"formats"`
	RequestedBy string     `json:"requested_by,omitempty"`
}

// Scheduler queues export requests and exposes their status.
type Scheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
}

// Catalog resolves collections by name.
type Catalog interface {
	Collection(name string) (core.CollectionHandle, bool)
}

// Worker executes exports asynchronously.
type Worker struct {
	catalog Catalog
	store   blob.Store
	audit   core.AuditRecorder
	logger  core.Logger
	now     func() time.Time

	queue chan exportTask
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	retention time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id    string
	input ExportInput
}

// Option customises a Worker.
type Option func(*Worker)

// WithAuditRecorder records every status transition of a job.
func WithAuditRecorder(a core.AuditRecorder) Option {
	return func(w *Worker) { w.audit = a }
}

// WithLogger sets the worker logger.
func WithLogger(l core.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithQueueSize bounds the number of pending jobs.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.queue = make(chan exportTask, n)
		}
	}
}

// WithRetention sets how long finished jobs stay visible; zero keeps them
// for the life of the worker.
func WithRetention(d time.Duration) Option {
	return func(w *Worker) { w.retention = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// NewWorker constructs an export worker writing artifacts to store.
func NewWorker(c Catalog, store blob.Store, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		catalog:   c,
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		queue:     make(chan exportTask, 32),
		jobs:      make(map[string]*ExportRecord),
		retention: DefaultRetention,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport validates input and schedules the job.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.catalog == nil || w.store == nil {
		return ExportRecord{}, core.ErrNoBlobStore
	}
	name := strings.TrimSpace(input.Collection)
	if name == "" {
		return ExportRecord{}, &InputError{Message: "collection required"}
	}
	coll, ok := w.catalog.Collection(name)
	if !ok {
		return ExportRecord{}, &InputError{Message: fmt.Sprintf("collection %s not found", name)}
	}
	for dim := range input.Query.Active() {
		if !contains(coll.Dimensions(), dim) {
			return ExportRecord{}, &InputError{Message: fmt.Sprintf("unknown filter %q for %s", dim, name)}
		}
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, f := range formats {
		f = Format(strings.ToLower(string(f)))
		if _, dup := seen[f]; dup {
			continue
		}
		if f != FormatJSON && f != FormatCSV {
			return ExportRecord{}, &InputError{Message: fmt.Sprintf("format %s not supported", f)}
		}
		seen[f] = struct{}{}
		uniq = append(uniq, f)
	}

	now := w.now()
	record := ExportRecord{
		ID:          uuid.NewString(),
		Collection:  name,
		Query:       input.Query,
		Formats:     uniq,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	input.Collection = name

	task := exportTask{id: record.ID, input: input}

	// The queued entry is audited before the worker can pick the job up.
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(now)
	select {
	case w.queue <- task:
	default:
		return ExportRecord{}, ErrQueueFull
	}
	w.jobs[record.ID] = &record
	queued := record.copy()
	w.recordAudit(ctx, queued, "")
	return queued, nil
}

// pruneLocked drops finished jobs completed longer than the retention ago.
func (w *Worker) pruneLocked(now time.Time) {
	if w.retention <= 0 {
		return
	}
	cutoff := now.Add(-w.retention)
	for id, r := range w.jobs {
		if r.CompletedAt != nil && r.CompletedAt.Before(cutoff) {
			delete(w.jobs, id)
		}
	}
}

// GetExport returns a copy of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(task exportTask) {
	w.transition(task.id, func(r *ExportRecord) { r.Status = ExportStatusRunning })

	coll, ok := w.catalog.Collection(task.input.Collection)
	if !ok {
		w.fail(task.id, fmt.Sprintf("collection %s missing", task.input.Collection))
		return
	}
	data, err := coll.Dataset(w.ctx, task.input.Query)
	if err != nil {
		w.fail(task.id, fmt.Sprintf("load %s: %v", task.input.Collection, err))
		return
	}
	record, _ := w.GetExport(task.id)
	artifacts := make([]ExportArtifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		payload, contentType, err := materialize(format, data)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		key := blob.Key("exports", task.id, data.Collection+"."+string(format))
		info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"rows": fmt.Sprint(len(data.Rows)), "collection": data.Collection},
		})
		if err != nil {
			w.fail(task.id, fmt.Sprintf("store artifact failed: %v", err))
			return
		}
		artifact := ExportArtifact{
			Key:         info.Key,
			Format:      format,
			ContentType: contentType,
			SizeBytes:   int64(len(payload)),
			Rows:        len(data.Rows),
			URL:         info.URL,
			CreatedAt:   w.now(),
		}
		if url, err := w.store.PresignURL(w.ctx, info.Key, blob.SignedURLOptions{Method: "GET"}); err == nil {
			artifact.URL = url
		}
		artifacts = append(artifacts, artifact)
	}
	w.transition(task.id, func(r *ExportRecord) {
		now := w.now()
		r.Status = ExportStatusSucceeded
		r.Error = ""
		r.Artifacts = artifacts
		r.CompletedAt = &now
	})
}

func (w *Worker) fail(id, reason string) {
	if w.logger != nil {
		w.logger.Warn("export failed", "export_id", id, "error", reason)
	}
	w.transition(id, func(r *ExportRecord) {
		now := w.now()
		r.Status = ExportStatusFailed
		r.Error = reason
		r.CompletedAt = &now
	})
}

func (w *Worker) transition(id string, apply func(*ExportRecord)) {
	w.mu.Lock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	apply(record)
	record.UpdatedAt = w.now()
	snapshot := record.copy()
	w.mu.Unlock()
	w.recordAudit(w.ctx, snapshot, snapshot.Error)
}

func (w *Worker) recordAudit(ctx context.Context, record ExportRecord, message string) {
	if w.audit == nil {
		return
	}
	status := core.AuditStatusSuccess
	if record.Status == ExportStatusFailed {
		status = core.AuditStatusError
	}
	w.audit.Record(ctx, core.AuditEntry{
		ID:        uuid.NewString(),
		Operation: "export_" + string(record.Status),
		Action:    core.ActionCreate,
		EntityID:  record.ID,
		Status:    status,
		Error:     message,
		Timestamp: record.UpdatedAt,
	})
}

func materialize(format Format, data core.Dataset) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(data.Columns); err != nil {
			return nil, "", err
		}
		for _, row := range data.Rows {
			record := make([]string, len(data.Columns))
			for i, column := range data.Columns {
				record[i] = formatValue(row[column])
			}
			if err := writer.Write(record); err != nil {
				return nil, "", err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %s", format)
	}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ";")
	case map[string]any:
		raw, _ := json.Marshal(v)
		return string(raw)
	default:
		return fmt.Sprint(v)
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func (r ExportRecord) copy() ExportRecord {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	}
	if r.Query.Filters != nil {
		dup.Query.Filters = make(map[string]string, len(r.Query.Filters))
		for k, v := range r.Query.Filters {
			dup.Query.Filters[k] = v
		}
	}
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		dup.CompletedAt = &at
	}
	return dup
}
