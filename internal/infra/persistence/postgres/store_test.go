package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"consulardesk/internal/infra/persistence/buckets"
	"consulardesk/internal/infra/persistence/postgres/testutil"
	"consulardesk/pkg/domain"
)

func openStubStore(t *testing.T, db *sql.DB, opts ...Option) *Store {
	t.Helper()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "", domain.NewRulesEngine(), opts...)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	db, conn := testutil.NewStubDB()
	openStubStore(t, db)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state DDL, got execs: %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsAndReloads(t *testing.T) {
	db, conn := testutil.NewStubDB()
	store := openStubStore(t, db)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.VisaApplications().Create(domain.VisaApplication{
			Category: domain.VisaTourist, ApplicantName: "Lena", PassportNumber: "T1", ContactEmail: "l@x",
		})
		return err
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := len(conn.Buckets); got != len(buckets.Names()) {
		t.Fatalf("expected %d bucket rows, got %d", len(buckets.Names()), got)
	}

	reloaded := openStubStore(t, db)
	var visas []domain.VisaApplication
	if err := reloaded.View(ctx, func(v domain.TransactionView) error {
		visas = v.VisaApplications().List()
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(visas) != 1 || visas[0].ID != "TV001" {
		t.Fatalf("unexpected reload %+v", visas)
	}
	if reloaded.DB() != db {
		t.Fatalf("expected shared handle")
	}
}

func TestFlushRetriesTransientCommitFailures(t *testing.T) {
	db, conn := testutil.NewStubDB()
	store := openStubStore(t, db, WithRetryPolicy(buckets.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}))
	conn.CommitFailures = 2
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.Contacts().Create(domain.Contact{Name: "a", Email: "a@b"})
		return err
	}); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if conn.Commits != 1 {
		t.Fatalf("expected one successful commit, got %d", conn.Commits)
	}
}

func TestFlushFailureRestoresState(t *testing.T) {
	db, conn := testutil.NewStubDB()
	store := openStubStore(t, db, WithRetryPolicy(buckets.RetryPolicy{Attempts: 2, Backoff: time.Millisecond}))
	conn.FailCommit = true
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.Contacts().Create(domain.Contact{Name: "a", Email: "a@b"})
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	var n int
	_ = store.View(context.Background(), func(v domain.TransactionView) error {
		n = len(v.Contacts().List())
		return nil
	})
	if n != 0 {
		t.Fatalf("failed flush left %d contacts", n)
	}
}

func TestRunInTransactionStopsOnUserError(t *testing.T) {
	db, conn := testutil.NewStubDB()
	store := openStubStore(t, db)
	before := len(conn.Execs)
	sentinel := errors.New("nope")
	_, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if len(conn.Execs) != before {
		t.Fatalf("user error should not flush")
	}
}

func TestNewStoreErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("no driver") })
	if _, err := NewStore(context.Background(), "dsn", nil); err == nil {
		t.Fatalf("expected open error")
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "dsn", nil); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestLoadSnapshotRejectsCorruptBucket(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.Buckets[buckets.Contacts] = []byte("{broken")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "", nil); err == nil {
		t.Fatalf("expected decode error")
	}
}
