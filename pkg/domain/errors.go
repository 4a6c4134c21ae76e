package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfirmationRequired is returned when a destructive operation was not confirmed.
var ErrConfirmationRequired = errors.New("deletion requires confirmation")

// NotFoundError reports a missing record.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field errors found before a record is stored.
type ValidationError struct {
	Entity EntityType   `json:"entity"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

// InvalidStatusError reports a status value outside the entity's state set.
type InvalidStatusError struct {
	Entity EntityType
	Value  string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("%s: unknown status %q", e.Entity, e.Value)
}

// TransitionError reports a lifecycle move not present in the transition table.
type TransitionError struct {
	Entity EntityType
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: transition %q -> %q not allowed", e.Entity, e.ID, e.From, e.To)
}

// UnknownFilterError reports a filter dimension the entity does not define.
type UnknownFilterError struct {
	Entity    EntityType
	Dimension string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("%s: unknown filter %q", e.Entity, e.Dimension)
}

// fieldCheck accumulates field errors for an entity.
type fieldCheck struct {
	entity EntityType
	errs   []FieldError
}

func (c *fieldCheck) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.errs = append(c.errs, FieldError{Field: field, Message: "is required"})
	}
}

func (c *fieldCheck) fail(field, message string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: message})
}

func (c *fieldCheck) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Entity: c.entity, Fields: c.errs}
}
