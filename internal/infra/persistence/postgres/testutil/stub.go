// Package testutil provides a database/sql driver that emulates the postgres
// bucket table for store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
)

var stubSeq atomic.Int64

// StateConn holds the emulated state table. Upserts issued inside a
// transaction become visible only when it commits.
type StateConn struct {
	// Buckets maps bucket name to its stored payload.
	Buckets map[string][]byte
	// Execs lists every statement passed to ExecContext.
	Execs []string

	FailPing    bool
	FailBegin   bool
	FailCommit  bool
	FailBuckets map[string]bool
	// CommitFailures makes the next n commits fail before commits succeed again.
	CommitFailures int
	Commits        int
	RowsErr        error

	pending map[string][]byte
}

// NewStubDB registers a fresh driver and returns a sql.DB backed by it.
func NewStubDB() (*sql.DB, *StateConn) {
	conn := &StateConn{Buckets: make(map[string][]byte)}
	name := fmt.Sprintf("stubstate%d", stubSeq.Add(1))
	sql.Register(name, stateDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stateDriver struct {
	conn *StateConn
}

func (d stateDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn. Statements run through ExecContext and
// QueryContext only.
func (c *StateConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

// Close implements driver.Conn.
func (c *StateConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StateConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StateConn) Ping(context.Context) error {
	if c.FailPing {
		return errors.New("ping refused")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StateConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, errors.New("begin refused")
	}
	c.pending = make(map[string][]byte)
	return stateTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext. It understands the state DDL
// and the bucket upsert; anything else is accepted and ignored.
func (c *StateConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	upper := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(upper, "INSERT INTO STATE") {
		return driver.RowsAffected(0), nil
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("upsert expects bucket and payload, got %d args", len(args))
	}
	bucket, ok := args[0].Value.(string)
	if !ok {
		return nil, fmt.Errorf("bucket must be a string, got %T", args[0].Value)
	}
	if c.FailBuckets[bucket] {
		return nil, fmt.Errorf("upsert refused for %s", bucket)
	}
	payload, err := asBytes(args[1].Value)
	if err != nil {
		return nil, err
	}
	if c.pending != nil {
		c.pending[bucket] = payload
	} else {
		c.Buckets[bucket] = payload
	}
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext for the snapshot load.
func (c *StateConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT BUCKET, PAYLOAD FROM STATE") {
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
	names := make([]string, 0, len(c.Buckets))
	for name := range c.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]driver.Value, 0, len(names))
	for _, name := range names {
		rows = append(rows, []driver.Value{name, c.Buckets[name]})
	}
	return &stateRows{rows: rows, err: c.RowsErr}, nil
}

type stateTx struct {
	conn *StateConn
}

func (t stateTx) Commit() error {
	c := t.conn
	pending := c.pending
	c.pending = nil
	if c.FailCommit {
		return errors.New("commit refused")
	}
	if c.CommitFailures > 0 {
		c.CommitFailures--
		return errors.New("commit refused")
	}
	for name, payload := range pending {
		c.Buckets[name] = payload
	}
	c.Commits++
	return nil
}

func (t stateTx) Rollback() error {
	t.conn.pending = nil
	return nil
}

type stateRows struct {
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stateRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *stateRows) Close() error      { return nil }

func (r *stateRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func asBytes(v driver.Value) ([]byte, error) {
	switch p := v.(type) {
	case []byte:
		return append([]byte(nil), p...), nil
	case string:
		return []byte(p), nil
	default:
		return nil, fmt.Errorf("payload must be bytes, got %T", v)
	}
}
