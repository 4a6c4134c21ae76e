// Package memory provides an in-memory implementation of the consular
// persistence store used for tests, ephemeral environments and as the working
// set of the durable backends.
package memory

import (
	"context"
	"sync"
	"time"

	"consulardesk/pkg/domain"
)

// Compile-time contract assertion ensuring Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	visas        []domain.VisaApplication
	employees    []domain.Employee
	candidates   []domain.Candidate
	contacts     []domain.Contact
	appointments []domain.Appointment
	individuals  []domain.Individual
	articles     []domain.Article
	settings     domain.Settings
	seq          map[domain.EntityType]int64
	ids          map[string]int64
}

func newMemoryState() memoryState {
	return memoryState{
		settings: domain.DefaultSettings(),
		seq:      make(map[domain.EntityType]int64),
		ids:      make(map[string]int64),
	}
}

func (s memoryState) clone() memoryState {
	cloned := memoryState{
		visas:        visaSpec.cloneRows(s.visas),
		employees:    employeeSpec.cloneRows(s.employees),
		candidates:   candidateSpec.cloneRows(s.candidates),
		contacts:     contactSpec.cloneRows(s.contacts),
		appointments: appointmentSpec.cloneRows(s.appointments),
		individuals:  individualSpec.cloneRows(s.individuals),
		articles:     articleSpec.cloneRows(s.articles),
		settings:     s.settings,
		seq:          make(map[domain.EntityType]int64, len(s.seq)),
		ids:          make(map[string]int64, len(s.ids)),
	}
	for k, v := range s.seq {
		cloned.seq[k] = v
	}
	for k, v := range s.ids {
		cloned.ids[k] = v
	}
	return cloned
}

// Store provides an in-memory transactional store for the consular domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock used to stamp records.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.nowFn = fn
	s.mu.Unlock()
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// RulesEngine exposes the engine evaluated on every commit.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn succeeds, no rule blocks and
// the context is still live.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	return s.RunAndCommit(ctx, fn, nil)
}

// RunAndCommit behaves like RunInTransaction but lets the caller persist the
// candidate state before it becomes visible. When commit fails the live state
// is left untouched.
func (s *Store) RunAndCommit(ctx context.Context, fn func(tx Transaction) error, commit func(Snapshot) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, res, err := s.evaluate(ctx, fn)
	if err != nil {
		return res, err
	}
	if commit != nil {
		if err := commit(snapshotFromMemoryState(tx.state)); err != nil {
			return Result{}, err
		}
	}
	s.state = tx.state
	return res, nil
}

// evaluate runs fn and the rules engine against a copy of the state. Callers hold s.mu.
func (s *Store) evaluate(ctx context.Context, fn func(tx Transaction) error) (*transaction, Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, Result{}, err
	}
	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return nil, Result{}, err
	}
	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newTransactionView(&tx.state), tx.changes)
		if err != nil {
			return nil, Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return nil, res, domain.RuleViolationError{Result: res}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, Result{}, err
	}
	return tx, result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(TransactionView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) VisaApplications() domain.Table[domain.VisaApplication] {
	return txTable[domain.VisaApplication]{tx: tx, spec: visaSpec, rows: &tx.state.visas}
}

func (tx *transaction) Employees() domain.Table[domain.Employee] {
	return txTable[domain.Employee]{tx: tx, spec: employeeSpec, rows: &tx.state.employees}
}

func (tx *transaction) Candidates() domain.Table[domain.Candidate] {
	return txTable[domain.Candidate]{tx: tx, spec: candidateSpec, rows: &tx.state.candidates}
}

func (tx *transaction) Contacts() domain.Table[domain.Contact] {
	return txTable[domain.Contact]{tx: tx, spec: contactSpec, rows: &tx.state.contacts}
}

func (tx *transaction) Appointments() domain.Table[domain.Appointment] {
	return txTable[domain.Appointment]{tx: tx, spec: appointmentSpec, rows: &tx.state.appointments}
}

func (tx *transaction) Individuals() domain.Table[domain.Individual] {
	return txTable[domain.Individual]{tx: tx, spec: individualSpec, rows: &tx.state.individuals}
}

func (tx *transaction) Articles() domain.Table[domain.Article] {
	return txTable[domain.Article]{tx: tx, spec: articleSpec, rows: &tx.state.articles}
}

func (tx *transaction) Settings() domain.Settings {
	return tx.state.settings
}

// UpdateSettings mutates the singleton settings record.
func (tx *transaction) UpdateSettings(mutator func(*domain.Settings) error) (domain.Settings, error) {
	current := tx.state.settings
	if err := mutator(&current); err != nil {
		return domain.Settings{}, err
	}
	if err := current.Validate(); err != nil {
		return domain.Settings{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.settings = current
	return current, nil
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) VisaApplications() domain.TableView[domain.VisaApplication] {
	return tableView[domain.VisaApplication]{spec: visaSpec, rows: v.state.visas}
}

func (v transactionView) Employees() domain.TableView[domain.Employee] {
	return tableView[domain.Employee]{spec: employeeSpec, rows: v.state.employees}
}

func (v transactionView) Candidates() domain.TableView[domain.Candidate] {
	return tableView[domain.Candidate]{spec: candidateSpec, rows: v.state.candidates}
}

func (v transactionView) Contacts() domain.TableView[domain.Contact] {
	return tableView[domain.Contact]{spec: contactSpec, rows: v.state.contacts}
}

func (v transactionView) Appointments() domain.TableView[domain.Appointment] {
	return tableView[domain.Appointment]{spec: appointmentSpec, rows: v.state.appointments}
}

func (v transactionView) Individuals() domain.TableView[domain.Individual] {
	return tableView[domain.Individual]{spec: individualSpec, rows: v.state.individuals}
}

func (v transactionView) Articles() domain.TableView[domain.Article] {
	return tableView[domain.Article]{spec: articleSpec, rows: v.state.articles}
}

func (v transactionView) Settings() domain.Settings {
	return v.state.settings
}
