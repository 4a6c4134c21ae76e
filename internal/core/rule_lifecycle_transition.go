package core

import (
	"context"
	"fmt"

	"consulardesk/pkg/domain"
)

// LifecycleTransitionRule blocks commits that put a record into an unknown
// state or move it along an edge its lifecycle machine does not declare.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

// statusOf extracts the identifier and lifecycle state carried by a change payload.
func statusOf(payload any) (id, state string, ok bool) {
	switch rec := payload.(type) {
	case domain.VisaApplication:
		return rec.ID, string(rec.Status), true
	case domain.Employee:
		return rec.ID, string(rec.Status), true
	case domain.Candidate:
		return rec.ID, string(rec.Status), true
	case domain.Contact:
		return rec.ID, string(rec.Status), true
	case domain.Appointment:
		return rec.ID, string(rec.Status), true
	case domain.Individual:
		return rec.ID, string(rec.Status), true
	case domain.Article:
		return rec.ID, string(rec.Status), true
	}
	return "", "", false
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (r lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		machine, ok := domain.MachineFor(change.Entity)
		if !ok {
			continue
		}
		afterID, afterState, ok := statusOf(change.After)
		if !ok {
			continue
		}
		if canonical, err := machine.Parse(afterState); err != nil || canonical != afterState {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s %s is set to invalid state %q", change.Entity, afterID, afterState),
				Entity:   change.Entity,
				EntityID: afterID,
			})
			continue
		}
		_, beforeState, ok := statusOf(change.Before)
		if !ok {
			continue
		}
		if !machine.Allowed(beforeState, afterState) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("cannot move %s %s from %s to %s", change.Entity, afterID, beforeState, afterState),
				Entity:   change.Entity,
				EntityID: afterID,
			})
		}
	}
	return res, nil
}
