// Package buckets encodes store snapshots as named JSON payloads shared by the
// durable persistence backends, and provides the bounded retry used when
// flushing them.
package buckets

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"consulardesk/internal/infra/persistence/memory"
)

// Bucket names, in write order.
const (
	VisaApplications = "visa_applications"
	Employees        = "employees"
	Candidates       = "candidates"
	Contacts         = "contacts"
	Appointments     = "appointments"
	Individuals      = "individuals"
	Articles         = "articles"
	Settings         = "settings"
	Sequences        = "sequences"
	Identifiers      = "identifiers"
)

// Names lists every bucket a snapshot is split into.
func Names() []string {
	return []string{
		VisaApplications, Employees, Candidates, Contacts, Appointments,
		Individuals, Articles, Settings, Sequences, Identifiers,
	}
}

// Bucket is one named payload row.
type Bucket struct {
	Name    string
	Payload []byte
}

func fields(s *memory.Snapshot) map[string]any {
	return map[string]any{
		VisaApplications: &s.VisaApplications,
		Employees:        &s.Employees,
		Candidates:       &s.Candidates,
		Contacts:         &s.Contacts,
		Appointments:     &s.Appointments,
		Individuals:      &s.Individuals,
		Articles:         &s.Articles,
		Settings:         &s.Settings,
		Sequences:        &s.Sequences,
		Identifiers:      &s.Identifiers,
	}
}

// Encode splits the snapshot into buckets in Names order.
func Encode(snapshot memory.Snapshot) ([]Bucket, error) {
	targets := fields(&snapshot)
	out := make([]Bucket, 0, len(targets))
	for _, name := range Names() {
		data, err := json.Marshal(targets[name])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		out = append(out, Bucket{Name: name, Payload: data})
	}
	return out, nil
}

// Decoder accumulates bucket rows into a snapshot. Unknown buckets are ignored
// so older binaries can read newer databases.
type Decoder struct {
	snapshot memory.Snapshot
	targets  map[string]any
	seen     int
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	d := &Decoder{}
	d.targets = fields(&d.snapshot)
	return d
}

// Add decodes one bucket row.
func (d *Decoder) Add(name string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	target, ok := d.targets[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	d.seen++
	return nil
}

// Empty reports whether no known bucket has been decoded.
func (d *Decoder) Empty() bool { return d.seen == 0 }

// Snapshot returns the decoded snapshot.
func (d *Decoder) Snapshot() memory.Snapshot { return d.snapshot }

// RetryPolicy bounds how a flush is retried.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy is used when a store is not configured otherwise.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond, MaxBackoff: time.Second}
}

// Do runs fn until it succeeds, the attempts are exhausted or ctx ends. The
// backoff doubles between attempts up to MaxBackoff.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.Backoff
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w", i+1, ctx.Err())
		case <-timer.C:
		}
		if p.MaxBackoff <= 0 || backoff < p.MaxBackoff {
			backoff *= 2
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}
