package core

import (
	"context"
	"fmt"
	"strings"

	"consulardesk/pkg/domain"
)

// DuplicatePassportRule warns when an open visa application reuses the
// passport number of another open application.
func DuplicatePassportRule() domain.Rule {
	return duplicatePassportRule{}
}

type duplicatePassportRule struct{}

func (duplicatePassportRule) Name() string { return "duplicate_passport" }

func passportKey(number string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(number), " ", ""))
}

func openVisa(v domain.VisaApplication) bool {
	machine, _ := domain.MachineFor(domain.EntityVisaApplication)
	return !machine.Terminal(string(v.Status))
}

func (r duplicatePassportRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityVisaApplication || change.Action == domain.ActionDelete {
			continue
		}
		visa, ok := change.After.(domain.VisaApplication)
		if !ok || !openVisa(visa) {
			continue
		}
		key := passportKey(visa.PassportNumber)
		if key == "" {
			continue
		}
		for _, other := range view.VisaApplications().List() {
			if other.ID == visa.ID || !openVisa(other) || passportKey(other.PassportNumber) != key {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("visa application %s shares passport %s with %s", visa.ID, visa.PassportNumber, other.ID),
				Entity:   domain.EntityVisaApplication,
				EntityID: visa.ID,
			})
			break
		}
	}
	return res, nil
}
