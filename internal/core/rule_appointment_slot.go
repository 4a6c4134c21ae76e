package core

import (
	"context"
	"fmt"
	"strings"

	"consulardesk/pkg/domain"
)

// AppointmentSlotConflictRule warns when a created or updated appointment
// shares location, date and time with another open appointment.
func AppointmentSlotConflictRule() domain.Rule {
	return appointmentSlotConflictRule{}
}

type appointmentSlotConflictRule struct{}

func (appointmentSlotConflictRule) Name() string { return "appointment_slot_conflict" }

func slotKey(a domain.Appointment) string {
	return strings.ToLower(strings.TrimSpace(a.Location)) + "|" + a.Date + "|" + a.Time
}

func openAppointment(a domain.Appointment) bool {
	machine, _ := domain.MachineFor(domain.EntityAppointment)
	return !machine.Terminal(string(a.Status))
}

func (r appointmentSlotConflictRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	var touched []domain.Appointment
	for _, change := range changes {
		if change.Entity != domain.EntityAppointment || change.Action == domain.ActionDelete {
			continue
		}
		if appt, ok := change.After.(domain.Appointment); ok && openAppointment(appt) {
			touched = append(touched, appt)
		}
	}
	if len(touched) == 0 {
		return res, nil
	}
	all := view.Appointments().List()
	for _, appt := range touched {
		key := slotKey(appt)
		for _, other := range all {
			if other.ID == appt.ID || !openAppointment(other) || slotKey(other) != key {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("appointment %s overlaps %s at %s on %s %s", appt.ID, other.ID, appt.Location, appt.Date, appt.Time),
				Entity:   domain.EntityAppointment,
				EntityID: appt.ID,
			})
			break
		}
	}
	return res, nil
}
