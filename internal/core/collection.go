package core

import (
	"context"
	"time"

	"consulardesk/pkg/domain"
)

// Descriptor binds a record type to everything the generic collection needs.
type Descriptor[T any] struct {
	Entity EntityType
	// Name is the plural resource name used in operation names and URLs.
	Name      string
	Matcher   domain.Matcher[T]
	Table     func(domain.Transaction) domain.Table[T]
	View      func(domain.TransactionView) domain.TableView[T]
	Base      func(*T) *domain.Base
	Status    func(T) string
	SetStatus func(*T, string)
	Validate  func(T) error
	// Clone deep copies records that hold slices; nil means plain copy.
	Clone func(T) T
	// Defaults fills blank fields of a record about to be created.
	Defaults func(rec *T, now time.Time)
	// Document projects a record into the global search.
	Document func(T) SearchDocument
	// Freeze rejects or reverts changes to fields fixed at creation.
	Freeze func(before T, after *T) error
}

// DeleteOptions carries the confirmation a delete requires.
type DeleteOptions struct {
	Confirmed bool
}

// Collection is the filterable entity collection for one record type.
type Collection[T any] struct {
	svc     *Service
	desc    Descriptor[T]
	machine *domain.StateMachine
}

func newCollection[T any](svc *Service, desc Descriptor[T]) *Collection[T] {
	machine, _ := domain.MachineFor(desc.Entity)
	return &Collection[T]{svc: svc, desc: desc, machine: machine}
}

// Entity returns the entity type stored in the collection.
func (c *Collection[T]) Entity() EntityType { return c.desc.Entity }

// Name returns the plural resource name.
func (c *Collection[T]) Name() string { return c.desc.Name }

// Machine returns the lifecycle machine governing the status field.
func (c *Collection[T]) Machine() *domain.StateMachine { return c.machine }

// Dimensions lists the filter dimensions the collection accepts.
func (c *Collection[T]) Dimensions() []string {
	out := make([]string, 0, len(c.desc.Matcher.Dimensions))
	for dim := range c.desc.Matcher.Dimensions {
		out = append(out, dim)
	}
	return sortedStrings(out)
}

func (c *Collection[T]) clone(rec T) T {
	if c.desc.Clone == nil {
		return rec
	}
	return c.desc.Clone(rec)
}

func (c *Collection[T]) op(verb string) string { return verb + "_" + string(c.desc.Entity) }

// Create validates rec, applies creation defaults and stores it under a
// freshly allocated identifier. Caller supplied identity is ignored.
func (c *Collection[T]) Create(ctx context.Context, rec T) (T, Result, error) {
	var created T
	var res Result
	err := c.svc.instrument(ctx, c.op("create"), c.desc.Entity, ActionCreate, func(ctx context.Context) (string, error) {
		*c.desc.Base(&rec) = domain.Base{}
		if c.desc.Defaults != nil {
			c.desc.Defaults(&rec, c.svc.clock.Now())
		}
		if raw := c.desc.Status(rec); raw == "" {
			c.desc.SetStatus(&rec, c.machine.Initial())
		} else {
			status, err := c.machine.Parse(raw)
			if err != nil {
				return "", err
			}
			c.desc.SetStatus(&rec, status)
		}
		if err := c.desc.Validate(rec); err != nil {
			return "", err
		}
		var err error
		res, err = c.svc.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = c.desc.Table(tx).Create(rec)
			return err
		})
		if err != nil {
			return "", err
		}
		c.svc.afterCommit(ctx, []Change{{Entity: c.desc.Entity, Action: ActionCreate, After: created}}, c.document)
		return c.desc.Base(&created).ID, nil
	})
	return created, res, err
}

// List returns every record in insertion order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	err := c.svc.instrument(ctx, c.op("list"), c.desc.Entity, "", func(ctx context.Context) (string, error) {
		return "", c.svc.store.View(ctx, func(view domain.TransactionView) error {
			out = c.desc.View(view).List()
			return nil
		})
	})
	return out, err
}

// Filter returns the records matching q in insertion order.
func (c *Collection[T]) Filter(ctx context.Context, q Query) ([]T, error) {
	var out []T
	err := c.svc.instrument(ctx, c.op("filter"), c.desc.Entity, "", func(ctx context.Context) (string, error) {
		if err := c.desc.Matcher.Validate(q); err != nil {
			return "", err
		}
		return "", c.svc.store.View(ctx, func(view domain.TransactionView) error {
			var err error
			out, err = domain.Filter(c.desc.View(view).List(), c.desc.Matcher, q)
			return err
		})
	})
	return out, err
}

// Get returns the record with id or a NotFoundError.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := c.svc.instrument(ctx, c.op("get"), c.desc.Entity, "", func(ctx context.Context) (string, error) {
		return id, c.svc.store.View(ctx, func(view domain.TransactionView) error {
			rec, ok := c.desc.View(view).Find(id)
			if !ok {
				return domain.NotFoundError{Entity: c.desc.Entity, ID: id}
			}
			out = rec
			return nil
		})
	})
	return out, err
}

// Update applies mutator to the stored record. Identity, sequence, creation
// time and status survive the mutation; status changes go through UpdateStatus.
// Fields frozen by the descriptor, such as a visa's category, cannot change.
func (c *Collection[T]) Update(ctx context.Context, id string, mutator func(*T) error) (T, Result, error) {
	return c.update(ctx, c.op("update"), id, func(current *T) error {
		prior := c.clone(*current)
		if err := mutator(current); err != nil {
			return err
		}
		c.desc.SetStatus(current, c.desc.Status(prior))
		if c.desc.Freeze != nil {
			if err := c.desc.Freeze(prior, current); err != nil {
				return err
			}
		}
		return c.desc.Validate(*current)
	})
}

// UpdateStatus moves the record to the status named by raw. Loose spellings
// such as "underreview" are accepted. Moving to the current status is a no-op.
func (c *Collection[T]) UpdateStatus(ctx context.Context, id, raw string) (T, Result, error) {
	target, parseErr := c.machine.Parse(raw)
	if parseErr != nil {
		var zero T
		err := c.svc.instrument(ctx, c.op("update_status"), c.desc.Entity, ActionUpdate, func(context.Context) (string, error) {
			return id, parseErr
		})
		return zero, Result{}, err
	}
	return c.update(ctx, c.op("update_status"), id, func(current *T) error {
		if err := c.machine.Check(id, c.desc.Status(*current), target); err != nil {
			return err
		}
		c.desc.SetStatus(current, target)
		return nil
	})
}

func (c *Collection[T]) update(ctx context.Context, operation, id string, mutate func(*T) error) (T, Result, error) {
	var updated T
	var res Result
	err := c.svc.instrument(ctx, operation, c.desc.Entity, ActionUpdate, func(ctx context.Context) (string, error) {
		var before T
		changed := false
		var err error
		res, err = c.svc.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			table := c.desc.Table(tx)
			current, ok := table.Find(id)
			if !ok {
				return domain.NotFoundError{Entity: c.desc.Entity, ID: id}
			}
			before = current
			candidate := c.clone(current)
			if err := mutate(&candidate); err != nil {
				return err
			}
			fields, err := domain.ChangedFields(current, candidate)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				updated = current
				return nil
			}
			changed = true
			updated, err = table.Update(id, func(rec *T) error {
				*rec = candidate
				return nil
			})
			return err
		})
		if err != nil {
			return id, err
		}
		if changed {
			c.svc.afterCommit(ctx, []Change{{Entity: c.desc.Entity, Action: ActionUpdate, Before: before, After: updated}}, c.document)
		}
		return id, nil
	})
	return updated, res, err
}

// Delete removes exactly one record. Without confirmation nothing changes and
// ErrConfirmationRequired is returned.
func (c *Collection[T]) Delete(ctx context.Context, id string, opts DeleteOptions) (Result, error) {
	var res Result
	err := c.svc.instrument(ctx, c.op("delete"), c.desc.Entity, ActionDelete, func(ctx context.Context) (string, error) {
		if !opts.Confirmed {
			return id, domain.ErrConfirmationRequired
		}
		var before T
		var err error
		res, err = c.svc.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			table := c.desc.Table(tx)
			rec, ok := table.Find(id)
			if !ok {
				return domain.NotFoundError{Entity: c.desc.Entity, ID: id}
			}
			before = rec
			return table.Delete(id)
		})
		if err != nil {
			return id, err
		}
		c.svc.afterCommit(ctx, []Change{{Entity: c.desc.Entity, Action: ActionDelete, Before: before}}, c.document)
		return id, nil
	})
	return res, err
}

func (c *Collection[T]) document(payload any) (SearchDocument, bool) {
	rec, ok := payload.(T)
	if !ok || c.desc.Document == nil {
		return SearchDocument{}, false
	}
	doc := c.desc.Document(rec)
	doc.Type = c.desc.Entity
	doc.ID = c.desc.Base(&rec).ID
	doc.Seq = c.desc.Base(&rec).Seq
	if doc.Status == "" {
		doc.Status = c.desc.Status(rec)
	}
	if doc.URL == "" {
		doc.URL = "/api/v1/" + c.desc.Name + "/" + doc.ID
	}
	return doc, true
}

// scan runs the collection's free text matcher against a view for global search.
func (c *Collection[T]) scan(view domain.TransactionView, text string) []SearchDocument {
	q := Query{Search: text}
	var out []SearchDocument
	for _, rec := range c.desc.View(view).List() {
		if !c.desc.Matcher.Match(rec, q) {
			continue
		}
		if doc, ok := c.document(rec); ok {
			out = append(out, doc)
		}
	}
	return out
}
