package buckets

import (
	"context"
	"errors"
	"testing"
	"time"

	"consulardesk/internal/infra/persistence/memory"
	"consulardesk/pkg/domain"
)

func TestEncodeDecodeKeepsCounters(t *testing.T) {
	store := memory.NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		c, err := tx.Contacts().Create(domain.Contact{Name: "a"})
		if err != nil {
			return err
		}
		return tx.Contacts().Delete(c.ID)
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	rows, err := Encode(store.ExportState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(rows) != len(Names()) || rows[0].Name != VisaApplications {
		t.Fatalf("unexpected buckets %d", len(rows))
	}
	dec := NewDecoder()
	if !dec.Empty() {
		t.Fatalf("new decoder should be empty")
	}
	for _, r := range rows {
		if err := dec.Add(r.Name, r.Payload); err != nil {
			t.Fatalf("add %s: %v", r.Name, err)
		}
	}
	if err := dec.Add("legacy_bucket", []byte(`{}`)); err != nil {
		t.Fatalf("unknown bucket should be ignored: %v", err)
	}
	snap := dec.Snapshot()
	if snap.Identifiers[string(domain.EntityContact)] != 1 || snap.Settings == nil {
		t.Fatalf("counters or settings lost: %+v", snap.Identifiers)
	}
}

func TestDecodeRejectsCorruptPayload(t *testing.T) {
	if err := NewDecoder().Add(Contacts, []byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRetryPolicySucceedsAfterFailures(t *testing.T) {
	calls := 0
	p := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
}

func TestRetryPolicyGivesUp(t *testing.T) {
	sentinel := errors.New("down")
	calls := 0
	err := RetryPolicy{Attempts: 2, Backoff: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) || calls != 2 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryPolicy{Attempts: 5, Backoff: time.Hour}.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
}
