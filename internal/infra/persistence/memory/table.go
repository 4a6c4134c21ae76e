package memory

import (
	"fmt"
	"strconv"
	"strings"

	"consulardesk/pkg/domain"
)

// tableSpec binds one entity's row type to the accessors the generic table needs.
type tableSpec[T any] struct {
	entity domain.EntityType
	base   func(*T) *domain.Base
	clone  func(T) T
	// prefix returns the identifier prefix for a row; empty selects plain
	// decimal identifiers.
	prefix func(T) string
}

func identity[T any](v T) T { return v }

var (
	visaSpec = tableSpec[domain.VisaApplication]{
		entity: domain.EntityVisaApplication,
		base:   func(v *domain.VisaApplication) *domain.Base { return &v.Base },
		clone:  domain.CloneVisaApplication,
		prefix: func(v domain.VisaApplication) string { return v.Category.IDPrefix() },
	}
	employeeSpec = tableSpec[domain.Employee]{
		entity: domain.EntityEmployee,
		base:   func(v *domain.Employee) *domain.Base { return &v.Base },
		clone:  identity[domain.Employee],
	}
	candidateSpec = tableSpec[domain.Candidate]{
		entity: domain.EntityCandidate,
		base:   func(v *domain.Candidate) *domain.Base { return &v.Base },
		clone:  identity[domain.Candidate],
	}
	contactSpec = tableSpec[domain.Contact]{
		entity: domain.EntityContact,
		base:   func(v *domain.Contact) *domain.Base { return &v.Base },
		clone:  identity[domain.Contact],
	}
	appointmentSpec = tableSpec[domain.Appointment]{
		entity: domain.EntityAppointment,
		base:   func(v *domain.Appointment) *domain.Base { return &v.Base },
		clone:  identity[domain.Appointment],
	}
	individualSpec = tableSpec[domain.Individual]{
		entity: domain.EntityIndividual,
		base:   func(v *domain.Individual) *domain.Base { return &v.Base },
		clone:  identity[domain.Individual],
		prefix: func(domain.Individual) string { return "ID" },
	}
	articleSpec = tableSpec[domain.Article]{
		entity: domain.EntityArticle,
		base:   func(v *domain.Article) *domain.Base { return &v.Base },
		clone:  domain.CloneArticle,
	}
)

func (s tableSpec[T]) id(row *T) string { return s.base(row).ID }

func (s tableSpec[T]) indexOf(rows []T, id string) int {
	for i := range rows {
		if s.id(&rows[i]) == id {
			return i
		}
	}
	return -1
}

func (s tableSpec[T]) cloneRows(rows []T) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = s.clone(r)
	}
	return out
}

// counterKey names the identifier counter used for a row.
func (s tableSpec[T]) counterKey(row T) (key, prefix string) {
	if s.prefix != nil {
		prefix = s.prefix(row)
	}
	if prefix == "" {
		return string(s.entity), ""
	}
	return string(s.entity) + ":" + prefix, prefix
}

func formatID(prefix string, n int64) string {
	if prefix == "" {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%s%03d", prefix, n)
}

// parseID extracts the counter value encoded in id, if any.
func parseID(prefix, id string) (int64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(id, prefix), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// tableView exposes read-only rows of one entity.
type tableView[T any] struct {
	spec tableSpec[T]
	rows []T
}

func (v tableView[T]) Find(id string) (T, bool) {
	if i := v.spec.indexOf(v.rows, id); i >= 0 {
		return v.spec.clone(v.rows[i]), true
	}
	var zero T
	return zero, false
}

func (v tableView[T]) List() []T {
	return v.spec.cloneRows(v.rows)
}

// txTable applies mutations to the transaction's copy of one entity.
type txTable[T any] struct {
	tx   *transaction
	spec tableSpec[T]
	rows *[]T
}

func (t txTable[T]) Find(id string) (T, bool) {
	return tableView[T]{spec: t.spec, rows: *t.rows}.Find(id)
}

func (t txTable[T]) List() []T {
	return t.spec.cloneRows(*t.rows)
}

func (t txTable[T]) Create(row T) (T, error) {
	state := &t.tx.state
	base := t.spec.base(&row)
	state.seq[t.spec.entity]++
	base.Seq = state.seq[t.spec.entity]
	key, prefix := t.spec.counterKey(row)
	for {
		state.ids[key]++
		base.ID = formatID(prefix, state.ids[key])
		if t.spec.indexOf(*t.rows, base.ID) < 0 {
			break
		}
	}
	base.CreatedAt = t.tx.now
	base.UpdatedAt = t.tx.now
	*t.rows = append(*t.rows, t.spec.clone(row))
	t.tx.recordChange(domain.Change{Entity: t.spec.entity, Action: domain.ActionCreate, After: t.spec.clone(row)})
	return t.spec.clone(row), nil
}

func (t txTable[T]) Update(id string, mutator func(*T) error) (T, error) {
	var zero T
	i := t.spec.indexOf(*t.rows, id)
	if i < 0 {
		return zero, domain.NotFoundError{Entity: t.spec.entity, ID: id}
	}
	before := t.spec.clone((*t.rows)[i])
	current := t.spec.clone(before)
	if err := mutator(&current); err != nil {
		return zero, err
	}
	prev := t.spec.base(&before)
	base := t.spec.base(&current)
	base.ID = prev.ID
	base.Seq = prev.Seq
	base.CreatedAt = prev.CreatedAt
	base.UpdatedAt = t.tx.now
	(*t.rows)[i] = t.spec.clone(current)
	t.tx.recordChange(domain.Change{Entity: t.spec.entity, Action: domain.ActionUpdate, Before: before, After: t.spec.clone(current)})
	return current, nil
}

func (t txTable[T]) Delete(id string) error {
	i := t.spec.indexOf(*t.rows, id)
	if i < 0 {
		return domain.NotFoundError{Entity: t.spec.entity, ID: id}
	}
	before := (*t.rows)[i]
	*t.rows = append((*t.rows)[:i:i], (*t.rows)[i+1:]...)
	t.tx.recordChange(domain.Change{Entity: t.spec.entity, Action: domain.ActionDelete, Before: before})
	return nil
}
