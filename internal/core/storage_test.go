package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"consulardesk/internal/blob"
	"consulardesk/pkg/domain"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	store, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: StorageMemory}, nil)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	defer store.Close()
	svc := NewService(store)
	if _, _, err := svc.Contacts().Create(context.Background(), Contact{Name: "A", Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestOpenPersistentStoreSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "desk.db")
	cfg := StorageConfig{Driver: StorageSQLite, SQLitePath: path}

	store, err := OpenPersistentStore(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	svc := NewService(store)
	if err := Seed(ctx, svc, DefaultSampleData()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := svc.Visas().UpdateStatus(ctx, "BV001", "approved"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenPersistentStore(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	svc = NewService(reopened)
	visa, err := svc.Visas().Get(ctx, "BV001")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if visa.Status != domain.VisaApproved {
		t.Fatalf("expected persisted approval, got %s", visa.Status)
	}
	created, _, err := svc.Visas().Create(ctx, VisaApplication{
		Category:       domain.VisaBusiness,
		ApplicantName:  "Teresa Ada",
		PassportNumber: "GQ5550001",
		ContactEmail:   "teresa@example.com",
	})
	if err != nil {
		t.Fatalf("create after reopen: %v", err)
	}
	if created.ID != "BV004" {
		t.Fatalf("counters must survive reopen, got %s", created.ID)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	if _, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: "bolt"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{&domain.ValidationError{Entity: EntityContact}, KindInvalid},
		{&domain.InvalidStatusError{Entity: EntityContact, Value: "x"}, KindInvalid},
		{fmt.Errorf("wrapped: %w", &domain.UnknownFilterError{Entity: EntityContact, Dimension: "x"}), KindInvalid},
		{domain.NotFoundError{Entity: EntityContact, ID: "1"}, KindNotFound},
		{fmt.Errorf("get: %w", blob.ErrNotFound), KindNotFound},
		{&domain.TransitionError{Entity: EntityVisaApplication, ID: "BV001", From: "Approved", To: "Pending"}, KindConflict},
		{domain.RuleViolationError{}, KindConflict},
		{blob.ErrExists, KindConflict},
		{domain.ErrConfirmationRequired, KindConfirmationRequired},
		{context.DeadlineExceeded, KindTimeout},
		{fmt.Errorf("list: %w", context.Canceled), KindCanceled},
		{ErrNoBlobStore, KindUnavailable},
		{blob.ErrUnsupported, KindUnavailable},
		{errors.New("disk on fire"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
