package memory

import (
	"sort"

	"consulardesk/pkg/domain"
)

// Snapshot captures a point-in-time clone of the store state, including the
// counters that keep identifiers from being reused.
type Snapshot struct {
	VisaApplications []domain.VisaApplication    `json:"visa_applications"`
	Employees        []domain.Employee           `json:"employees"`
	Candidates       []domain.Candidate          `json:"candidates"`
	Contacts         []domain.Contact            `json:"contacts"`
	Appointments     []domain.Appointment        `json:"appointments"`
	Individuals      []domain.Individual         `json:"individuals"`
	Articles         []domain.Article            `json:"articles"`
	Settings         *domain.Settings            `json:"settings,omitempty"`
	Sequences        map[domain.EntityType]int64 `json:"sequences"`
	Identifiers      map[string]int64            `json:"identifiers"`
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	settings := cloned.settings
	return Snapshot{
		VisaApplications: cloned.visas,
		Employees:        cloned.employees,
		Candidates:       cloned.candidates,
		Contacts:         cloned.contacts,
		Appointments:     cloned.appointments,
		Individuals:      cloned.individuals,
		Articles:         cloned.articles,
		Settings:         &settings,
		Sequences:        cloned.seq,
		Identifiers:      cloned.ids,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	state.visas = visaSpec.cloneRows(s.VisaApplications)
	state.employees = employeeSpec.cloneRows(s.Employees)
	state.candidates = candidateSpec.cloneRows(s.Candidates)
	state.contacts = contactSpec.cloneRows(s.Contacts)
	state.appointments = appointmentSpec.cloneRows(s.Appointments)
	state.individuals = individualSpec.cloneRows(s.Individuals)
	state.articles = articleSpec.cloneRows(s.Articles)
	if s.Settings != nil {
		state.settings = *s.Settings
	}
	for k, v := range s.Sequences {
		state.seq[k] = v
	}
	for k, v := range s.Identifiers {
		state.ids[k] = v
	}
	return state
}

// migrateSnapshot repairs snapshots written by older builds or edited by hand:
// rows are ordered by sequence, rows without a sequence are numbered after the
// rest, and counters are raised so they cover every stored identifier.
func migrateSnapshot(s Snapshot) Snapshot {
	if s.Sequences == nil {
		s.Sequences = make(map[domain.EntityType]int64)
	}
	if s.Identifiers == nil {
		s.Identifiers = make(map[string]int64)
	}
	s.VisaApplications = migrateRows(visaSpec, s.VisaApplications, s.Sequences, s.Identifiers)
	s.Employees = migrateRows(employeeSpec, s.Employees, s.Sequences, s.Identifiers)
	s.Candidates = migrateRows(candidateSpec, s.Candidates, s.Sequences, s.Identifiers)
	s.Contacts = migrateRows(contactSpec, s.Contacts, s.Sequences, s.Identifiers)
	s.Appointments = migrateRows(appointmentSpec, s.Appointments, s.Sequences, s.Identifiers)
	s.Individuals = migrateRows(individualSpec, s.Individuals, s.Sequences, s.Identifiers)
	s.Articles = migrateRows(articleSpec, s.Articles, s.Sequences, s.Identifiers)
	return s
}

func migrateRows[T any](spec tableSpec[T], rows []T, seq map[domain.EntityType]int64, ids map[string]int64) []T {
	rows = spec.cloneRows(rows)
	for i := range rows {
		base := spec.base(&rows[i])
		if base.Seq > seq[spec.entity] {
			seq[spec.entity] = base.Seq
		}
	}
	for i := range rows {
		base := spec.base(&rows[i])
		if base.Seq <= 0 {
			seq[spec.entity]++
			base.Seq = seq[spec.entity]
		}
		key, prefix := spec.counterKey(rows[i])
		if n, ok := parseID(prefix, base.ID); ok && n > ids[key] {
			ids[key] = n
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return spec.base(&rows[a]).Seq < spec.base(&rows[b]).Seq
	})
	return rows
}
