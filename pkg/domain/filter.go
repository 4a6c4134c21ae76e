package domain

import "strings"

// FilterAll is the sentinel filter value meaning "no constraint".
const FilterAll = "all"

// Normalize lowercases s and strips every space so "Under Review" and
// "underreview" compare equal.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// Query selects records by free text and category filters.
type Query struct {
	Search  string            `json:"search,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

// Active returns the filters that constrain the result, keyed by dimension.
func (q Query) Active() map[string]string {
	out := make(map[string]string, len(q.Filters))
	for dim, value := range q.Filters {
		if value == "" || Normalize(value) == FilterAll {
			continue
		}
		out[dim] = value
	}
	return out
}

// Matcher binds the searchable fields and filter dimensions of an entity.
type Matcher[T any] struct {
	Entity     EntityType
	Search     []func(T) string
	Dimensions map[string]func(T) string
}

// Validate rejects queries that reference dimensions the entity does not define.
func (m Matcher[T]) Validate(q Query) error {
	for dim := range q.Active() {
		if _, ok := m.Dimensions[dim]; !ok {
			return &UnknownFilterError{Entity: m.Entity, Dimension: dim}
		}
	}
	return nil
}

// Match reports whether rec satisfies q. Unknown dimensions never match.
func (m Matcher[T]) Match(rec T, q Query) bool {
	if needle := strings.ToLower(strings.TrimSpace(q.Search)); needle != "" {
		found := false
		for _, field := range m.Search {
			if strings.Contains(strings.ToLower(field(rec)), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for dim, value := range q.Active() {
		field, ok := m.Dimensions[dim]
		if !ok || Normalize(field(rec)) != Normalize(value) {
			return false
		}
	}
	return true
}

// Filter returns the records matching q in their original order. The input
// slice is not modified.
func Filter[T any](records []T, m Matcher[T], q Query) ([]T, error) {
	if err := m.Validate(q); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if m.Match(rec, q) {
			out = append(out, rec)
		}
	}
	return out, nil
}
