package domain

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// Change describes a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	// ActionDelete indicates an entity was deleted.
	ActionDelete Action = "delete"
)

// RecordID extracts the identifier carried by the change payloads.
func (c Change) RecordID() string {
	for _, payload := range []any{c.After, c.Before} {
		if id := recordID(payload); id != "" {
			return id
		}
	}
	return ""
}

func recordID(v any) string {
	switch rec := v.(type) {
	case VisaApplication:
		return rec.ID
	case Employee:
		return rec.ID
	case Candidate:
		return rec.ID
	case Contact:
		return rec.ID
	case Appointment:
		return rec.ID
	case Individual:
		return rec.ID
	case Article:
		return rec.ID
	}
	return ""
}

// bookkeepingFields are maintained by the store and excluded from diffs.
var bookkeepingFields = map[string]struct{}{
	"updated_at": {},
}

// ChangedFields compares the JSON projections of two records and returns the
// sorted names of the top-level fields that differ, ignoring store bookkeeping.
func ChangedFields(before, after any) ([]string, error) {
	b, err := toFieldMap(before)
	if err != nil {
		return nil, fmt.Errorf("diff before: %w", err)
	}
	a, err := toFieldMap(after)
	if err != nil {
		return nil, fmt.Errorf("diff after: %w", err)
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	var changed []string
	for key, value := range a {
		seen[key] = struct{}{}
		if _, skip := bookkeepingFields[key]; skip {
			continue
		}
		if prev, ok := b[key]; !ok || string(prev) != string(value) {
			changed = append(changed, key)
		}
	}
	for key := range b {
		if _, ok := seen[key]; ok {
			continue
		}
		if _, skip := bookkeepingFields[key]; skip {
			continue
		}
		changed = append(changed, key)
	}
	sort.Strings(changed)
	return changed, nil
}

func toFieldMap(v any) (map[string]json.RawMessage, error) {
	if v == nil {
		return map[string]json.RawMessage{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Violation captures a rule outcome.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("transaction blocked by rule %s: %s", v.Rule, v.Message)
		}
	}
	return "transaction blocked by rules"
}
