package domain

import "context"

// Table exposes the mutations a persistence implementation must support for
// one entity within an atomic scope. Create assigns identity; callers never
// choose identifiers.
type Table[T any] interface {
	TableView[T]
	Create(T) (T, error)
	Update(id string, mutator func(*T) error) (T, error)
	Delete(id string) error
}

// TableView provides read-only access to one entity, in insertion order.
type TableView[T any] interface {
	Find(id string) (T, bool)
	List() []T
}

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	VisaApplications() Table[VisaApplication]
	Employees() Table[Employee]
	Candidates() Table[Candidate]
	Contacts() Table[Contact]
	Appointments() Table[Appointment]
	Individuals() Table[Individual]
	Articles() Table[Article]
	Settings() Settings
	UpdateSettings(mutator func(*Settings) error) (Settings, error)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	VisaApplications() TableView[VisaApplication]
	Employees() TableView[Employee]
	Candidates() TableView[Candidate]
	Contacts() TableView[Contact]
	Appointments() TableView[Appointment]
	Individuals() TableView[Individual]
	Articles() TableView[Article]
	Settings() Settings
}

// PersistentStore is a minimal abstraction over durable backends.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Close() error
}
