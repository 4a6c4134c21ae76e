package domain

import (
	"context"
	"fmt"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if err.Error() == "" {
		t.Fatalf("expected error string")
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected violation")
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type emptyTable[T any] struct{}

func (emptyTable[T]) Find(string) (T, bool) {
	var zero T
	return zero, false
}

func (emptyTable[T]) List() []T { return nil }

type emptyView struct{}

func (emptyView) VisaApplications() TableView[VisaApplication] { return emptyTable[VisaApplication]{} }
func (emptyView) Employees() TableView[Employee]               { return emptyTable[Employee]{} }
func (emptyView) Candidates() TableView[Candidate]             { return emptyTable[Candidate]{} }
func (emptyView) Contacts() TableView[Contact]                 { return emptyTable[Contact]{} }
func (emptyView) Appointments() TableView[Appointment]         { return emptyTable[Appointment]{} }
func (emptyView) Individuals() TableView[Individual]           { return emptyTable[Individual]{} }
func (emptyView) Articles() TableView[Article]                 { return emptyTable[Article]{} }
func (emptyView) Settings() Settings                           { return DefaultSettings() }

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(errorRule{})
	if _, err := engine.Evaluate(context.Background(), emptyView{}, nil); err == nil {
		t.Fatalf("expected evaluation error")
	}
}

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	return Result{}, fmt.Errorf("boom")
}

func TestRulesEngineStopsOnCancelledContext(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Evaluate(ctx, emptyView{}, nil); err == nil {
		t.Fatalf("expected context error")
	}
	if names := engine.Rules(); len(names) != 1 || names[0] != "warn" {
		t.Fatalf("unexpected rule names %v", names)
	}
}

func TestResultWarningsExcludeBlocking(t *testing.T) {
	res := Result{Violations: []Violation{
		{Rule: "a", Severity: SeverityBlock},
		{Rule: "b", Severity: SeverityWarn},
		{Rule: "c", Severity: SeverityLog},
	}}
	warnings := res.Warnings()
	if len(warnings) != 2 || warnings[0].Rule != "b" || warnings[1].Rule != "c" {
		t.Fatalf("unexpected warnings %+v", warnings)
	}
	msg := RuleViolationError{Result: res}.Error()
	if msg != "transaction blocked by rule a: " {
		t.Fatalf("unexpected message %q", msg)
	}
}
