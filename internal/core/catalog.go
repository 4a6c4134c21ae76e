package core

import (
	"context"
	"reflect"
	"strings"

	json "github.com/goccy/go-json"

	"consulardesk/pkg/domain"
)

// CollectionHandle is the type-erased view of a collection used by callers
// that address collections by name.
type CollectionHandle interface {
	Entity() EntityType
	Name() string
	Dimensions() []string
	Machine() *domain.StateMachine
	// Dataset returns the records matching q projected to flat rows.
	Dataset(ctx context.Context, q Query) (Dataset, error)
}

// Dataset is a tabular projection of filtered records.
type Dataset struct {
	Collection string           `json:"collection"`
	Entity     EntityType       `json:"entity"`
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
}

// Collections returns every collection in display order.
func (s *Service) Collections() []CollectionHandle {
	return []CollectionHandle{s.visas, s.employees, s.candidates, s.contacts, s.appointments, s.individuals, s.articles}
}

// Collection resolves a collection by its plural resource name.
func (s *Service) Collection(name string) (CollectionHandle, bool) {
	for _, c := range s.Collections() {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Dataset implements CollectionHandle.
func (c *Collection[T]) Dataset(ctx context.Context, q Query) (Dataset, error) {
	records, err := c.Filter(ctx, q)
	if err != nil {
		return Dataset{}, err
	}
	var zero T
	out := Dataset{
		Collection: c.desc.Name,
		Entity:     c.desc.Entity,
		Columns:    jsonColumns(reflect.TypeOf(zero)),
		Rows:       make([]map[string]any, 0, len(records)),
	}
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return Dataset{}, err
		}
		row := make(map[string]any)
		if err := json.Unmarshal(raw, &row); err != nil {
			return Dataset{}, err
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// jsonColumns lists the JSON field names of a struct in declaration order,
// flattening embedded structs.
func jsonColumns(t reflect.Type) []string {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, jsonColumns(f.Type)...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		out = append(out, name)
	}
	return out
}
