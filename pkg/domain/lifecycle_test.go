package domain

import (
	"errors"
	"testing"
)

func TestMachineForEveryStatusedEntity(t *testing.T) {
	for _, entity := range EntityTypes() {
		m, ok := MachineFor(entity)
		if !ok {
			t.Fatalf("no machine for %s", entity)
		}
		if m.Entity() != entity || m.Initial() == "" {
			t.Fatalf("machine for %s misconfigured", entity)
		}
	}
	if _, ok := MachineFor(EntitySettings); ok {
		t.Fatalf("settings should not have a lifecycle")
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	m, _ := MachineFor(EntityAppointment)
	if m.Initial() != string(AppointmentScheduled) {
		t.Fatalf("unexpected initial %q", m.Initial())
	}
	allowed := [][2]AppointmentStatus{
		{AppointmentScheduled, AppointmentConfirmed},
		{AppointmentConfirmed, AppointmentInProgress},
		{AppointmentInProgress, AppointmentCompleted},
		{AppointmentScheduled, AppointmentNoShow},
		{AppointmentCompleted, AppointmentCompleted},
	}
	for _, e := range allowed {
		if err := m.Check("1", string(e[0]), string(e[1])); err != nil {
			t.Fatalf("expected %s -> %s allowed: %v", e[0], e[1], err)
		}
	}
	err := m.Check("1", string(AppointmentCompleted), string(AppointmentScheduled))
	var terr *TransitionError
	if !errors.As(err, &terr) || terr.From != "Completed" || terr.To != "Scheduled" {
		t.Fatalf("expected transition error, got %v", err)
	}
	for _, s := range []AppointmentStatus{AppointmentCompleted, AppointmentCancelled, AppointmentNoShow} {
		if !m.Terminal(string(s)) {
			t.Fatalf("%s should be terminal", s)
		}
	}
}

func TestVisaLifecycleTerminalStates(t *testing.T) {
	m, _ := MachineFor(EntityVisaApplication)
	if got := m.Next(string(VisaPending)); len(got) != 3 {
		t.Fatalf("unexpected next states %v", got)
	}
	if m.Allowed(string(VisaApproved), string(VisaPending)) {
		t.Fatalf("approved applications must not reopen")
	}
}

func TestParseNormalizesStatus(t *testing.T) {
	m, _ := MachineFor(EntityVisaApplication)
	got, err := m.Parse("underreview")
	if err != nil || got != string(VisaUnderReview) {
		t.Fatalf("parse: %q %v", got, err)
	}
	_, err = m.Parse("Lost")
	var serr *InvalidStatusError
	if !errors.As(err, &serr) || serr.Value != "Lost" {
		t.Fatalf("expected invalid status, got %v", err)
	}
}
