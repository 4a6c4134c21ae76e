package core

import "consulardesk/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	VisaApplication    = domain.VisaApplication
	Employee           = domain.Employee
	Candidate          = domain.Candidate
	Contact            = domain.Contact
	Appointment        = domain.Appointment
	Individual         = domain.Individual
	Article            = domain.Article
	Settings           = domain.Settings
	Query              = domain.Query
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityVisaApplication = domain.EntityVisaApplication
	EntityEmployee        = domain.EntityEmployee
	EntityCandidate       = domain.EntityCandidate
	EntityContact         = domain.EntityContact
	EntityAppointment     = domain.EntityAppointment
	EntityIndividual      = domain.EntityIndividual
	EntityArticle         = domain.EntityArticle
	EntitySettings        = domain.EntitySettings
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
