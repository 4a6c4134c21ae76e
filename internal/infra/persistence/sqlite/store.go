// Package sqlite persists the consular store to an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"consulardesk/internal/infra/persistence/buckets"
	"consulardesk/internal/infra/persistence/memory"
	"consulardesk/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "consulardesk.db"

// Store persists the in-memory state to a single SQLite table as JSON buckets.
// Every commit is flushed before it becomes visible to readers.
type Store struct {
	*memory.Store
	db    *sql.DB
	mu    sync.Mutex
	path  string
	retry buckets.RetryPolicy
}

// Option customises a Store.
type Option func(*Store)

// WithRetryPolicy sets how failed flushes are retried.
func WithRetryPolicy(p buckets.RetryPolicy) Option {
	return func(s *Store) { s.retry = p }
}

// NewStore opens (creating when needed) the database at path and hydrates the
// in-memory working set from it.
func NewStore(path string, engine *domain.RulesEngine, opts ...Option) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path, retry: buckets.DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	dec := buckets.NewDecoder()
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := dec.Add(bucket, payload); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if dec.Empty() {
		return nil
	}
	s.ImportState(dec.Snapshot())
	return nil
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) (retErr error) {
	rows, err := buckets.Encode(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, row.Name, row.Payload); err != nil {
			return fmt.Errorf("upsert %s: %w", row.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RunInTransaction applies fn within a transaction and flushes the resulting
// state to SQLite. A flush that still fails after retries discards the commit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	return s.RunAndCommit(ctx, fn, func(snapshot memory.Snapshot) error {
		return s.retry.Do(ctx, func(ctx context.Context) error {
			return s.persist(ctx, snapshot)
		})
	})
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
