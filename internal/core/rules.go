package core

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(AppointmentSlotConflictRule())
	engine.Register(DuplicatePassportRule())
	return engine
}
