package domain

// StateMachine declares the states of an entity lifecycle and the moves
// permitted between them.
type StateMachine struct {
	entity      EntityType
	initial     string
	states      []string
	transitions map[string]map[string]struct{}
}

// Transition is one allowed edge of a lifecycle.
type Transition struct {
	From string
	To   []string
}

// NewStateMachine builds a machine. The first state is the initial state.
func NewStateMachine(entity EntityType, states []string, transitions ...Transition) *StateMachine {
	m := &StateMachine{
		entity:      entity,
		states:      append([]string(nil), states...),
		transitions: make(map[string]map[string]struct{}, len(states)),
	}
	if len(states) > 0 {
		m.initial = states[0]
	}
	for _, t := range transitions {
		targets := m.transitions[t.From]
		if targets == nil {
			targets = make(map[string]struct{}, len(t.To))
			m.transitions[t.From] = targets
		}
		for _, to := range t.To {
			targets[to] = struct{}{}
		}
	}
	return m
}

// Entity returns the entity the machine governs.
func (m *StateMachine) Entity() EntityType { return m.entity }

// Initial returns the state assigned to new records.
func (m *StateMachine) Initial() string { return m.initial }

// States returns the declared states in order.
func (m *StateMachine) States() []string { return append([]string(nil), m.states...) }

// Parse resolves a loosely formatted status ("underreview", "UNDER REVIEW")
// to its canonical spelling.
func (m *StateMachine) Parse(raw string) (string, error) {
	needle := Normalize(raw)
	for _, s := range m.states {
		if Normalize(s) == needle {
			return s, nil
		}
	}
	return "", &InvalidStatusError{Entity: m.entity, Value: raw}
}

// Terminal reports whether no transition leaves the state.
func (m *StateMachine) Terminal(state string) bool {
	return len(m.transitions[state]) == 0
}

// Allowed reports whether the edge from -> to exists. Staying in place is always allowed.
func (m *StateMachine) Allowed(from, to string) bool {
	if from == to {
		return true
	}
	_, ok := m.transitions[from][to]
	return ok
}

// Check returns a TransitionError when the edge is not permitted.
func (m *StateMachine) Check(id, from, to string) error {
	if m.Allowed(from, to) {
		return nil
	}
	return &TransitionError{Entity: m.entity, ID: id, From: from, To: to}
}

// Next lists the states reachable from state in declaration order.
func (m *StateMachine) Next(state string) []string {
	var out []string
	for _, s := range m.states {
		if _, ok := m.transitions[state][s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func statusNames[S ~string](values ...S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var machines = map[EntityType]*StateMachine{
	EntityAppointment: NewStateMachine(EntityAppointment,
		statusNames(AppointmentScheduled, AppointmentConfirmed, AppointmentInProgress, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow),
		Transition{From: string(AppointmentScheduled), To: statusNames(AppointmentConfirmed, AppointmentCancelled, AppointmentNoShow)},
		Transition{From: string(AppointmentConfirmed), To: statusNames(AppointmentInProgress, AppointmentCancelled, AppointmentNoShow)},
		Transition{From: string(AppointmentInProgress), To: statusNames(AppointmentCompleted, AppointmentCancelled)},
	),
	EntityVisaApplication: NewStateMachine(EntityVisaApplication,
		statusNames(VisaPending, VisaUnderReview, VisaApproved, VisaRejected),
		Transition{From: string(VisaPending), To: statusNames(VisaUnderReview, VisaApproved, VisaRejected)},
		Transition{From: string(VisaUnderReview), To: statusNames(VisaPending, VisaApproved, VisaRejected)},
	),
	EntityCandidate: NewStateMachine(EntityCandidate,
		statusNames(CandidateApplied, CandidateScreening, CandidateInterview, CandidateOffered, CandidateHired, CandidateRejected),
		Transition{From: string(CandidateApplied), To: statusNames(CandidateScreening, CandidateRejected)},
		Transition{From: string(CandidateScreening), To: statusNames(CandidateInterview, CandidateRejected)},
		Transition{From: string(CandidateInterview), To: statusNames(CandidateOffered, CandidateRejected)},
		Transition{From: string(CandidateOffered), To: statusNames(CandidateHired, CandidateRejected)},
	),
	EntityArticle: NewStateMachine(EntityArticle,
		statusNames(ArticleDraft, ArticleUnderReview, ArticlePublished),
		Transition{From: string(ArticleDraft), To: statusNames(ArticleUnderReview, ArticlePublished)},
		Transition{From: string(ArticleUnderReview), To: statusNames(ArticleDraft, ArticlePublished)},
		Transition{From: string(ArticlePublished), To: statusNames(ArticleDraft)},
	),
	EntityEmployee: NewStateMachine(EntityEmployee,
		statusNames(EmployeeActive, EmployeeInactive),
		Transition{From: string(EmployeeActive), To: statusNames(EmployeeInactive)},
		Transition{From: string(EmployeeInactive), To: statusNames(EmployeeActive)},
	),
	EntityContact: NewStateMachine(EntityContact,
		statusNames(ContactActive, ContactInactive),
		Transition{From: string(ContactActive), To: statusNames(ContactInactive)},
		Transition{From: string(ContactInactive), To: statusNames(ContactActive)},
	),
	EntityIndividual: NewStateMachine(EntityIndividual,
		statusNames(IndividualActive, IndividualInactive, IndividualUnderReview),
		Transition{From: string(IndividualActive), To: statusNames(IndividualInactive, IndividualUnderReview)},
		Transition{From: string(IndividualInactive), To: statusNames(IndividualActive, IndividualUnderReview)},
		Transition{From: string(IndividualUnderReview), To: statusNames(IndividualActive, IndividualInactive)},
	),
}

// MachineFor returns the lifecycle machine registered for the entity.
func MachineFor(entity EntityType) (*StateMachine, bool) {
	m, ok := machines[entity]
	return m, ok
}
