// Package domain defines the consular records, value types, lifecycle machines
// and rule evaluation primitives used by consulardesk.
package domain

import "time"

// EntityType identifies the type of record stored in the consular domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityVisaApplication identifies a visa application of any category.
	EntityVisaApplication EntityType = "visa_application"
	// EntityEmployee identifies an embassy staff record.
	EntityEmployee EntityType = "employee"
	// EntityCandidate identifies a recruitment candidate.
	EntityCandidate EntityType = "candidate"
	// EntityContact identifies a directory contact.
	EntityContact EntityType = "contact"
	// EntityAppointment identifies a scheduled consular appointment.
	EntityAppointment EntityType = "appointment"
	// EntityIndividual identifies a person tracked by the in-country check.
	EntityIndividual EntityType = "individual"
	// EntityArticle identifies a published or draft article.
	EntityArticle EntityType = "article"
	// EntitySettings identifies the singleton administration settings record.
	EntitySettings EntityType = "settings"
)

// EntityTypes lists every collection-backed entity in display order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityVisaApplication,
		EntityEmployee,
		EntityCandidate,
		EntityContact,
		EntityAppointment,
		EntityIndividual,
		EntityArticle,
	}
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records. ID and Seq are owned by
// the store: Seq is a per-entity monotonic counter defining insertion order.
type Base struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisaCategory distinguishes the visa application queues.
type VisaCategory string

// Visa categories handled by the consular section.
const (
	VisaBusiness VisaCategory = "business"
	VisaStudent  VisaCategory = "student"
	VisaTourist  VisaCategory = "tourist"
)

// IDPrefix returns the identifier prefix used for applications in the category.
func (c VisaCategory) IDPrefix() string {
	switch c {
	case VisaBusiness:
		return "BV"
	case VisaStudent:
		return "SV"
	case VisaTourist:
		return "TV"
	default:
		return "V"
	}
}

// Valid reports whether the category is one of the known queues.
func (c VisaCategory) Valid() bool {
	switch c {
	case VisaBusiness, VisaStudent, VisaTourist:
		return true
	}
	return false
}

// VisaStatus enumerates visa application review states.
type VisaStatus string

// Canonical visa statuses.
const (
	VisaPending     VisaStatus = "Pending"
	VisaUnderReview VisaStatus = "Under Review"
	VisaApproved    VisaStatus = "Approved"
	VisaRejected    VisaStatus = "Rejected"
)

// TravelDates bounds the stay requested by a visa applicant.
type TravelDates struct {
	Arrival   string `json:"arrival,omitempty"`
	Departure string `json:"departure,omitempty"`
}

// VisaApplication is a single business, student or tourist visa request.
type VisaApplication struct {
	Base
	Category       VisaCategory `json:"category"`
	ApplicantName  string       `json:"applicant_name"`
	PassportNumber string       `json:"passport_number"`
	Nationality    string       `json:"nationality"`
	Purpose        string       `json:"purpose"`
	PlannedStay    string       `json:"planned_stay,omitempty"`
	Accommodation  string       `json:"accommodation,omitempty"`
	ContactEmail   string       `json:"contact_email"`
	SubmissionDate string       `json:"submission_date"`
	ProcessingDate string       `json:"processing_date,omitempty"`
	ValidUntil     string       `json:"valid_until,omitempty"`
	TravelDates    TravelDates  `json:"travel_dates"`
	Documents      []string     `json:"documents"`
	Notes          string       `json:"notes,omitempty"`
	Status         VisaStatus   `json:"status"`
}

// EmployeeStatus enumerates staff employment states.
type EmployeeStatus string

// Canonical employee statuses.
const (
	EmployeeActive   EmployeeStatus = "Active"
	EmployeeInactive EmployeeStatus = "Inactive"
)

// Employee is an embassy staff member.
type Employee struct {
	Base
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone,omitempty"`
	Position   string         `json:"position"`
	Department string         `json:"department,omitempty"`
	HireDate   string         `json:"hire_date,omitempty"`
	Status     EmployeeStatus `json:"status"`
}

// CandidateStatus enumerates recruitment pipeline stages.
type CandidateStatus string

// Canonical candidate statuses.
const (
	CandidateApplied   CandidateStatus = "Applied"
	CandidateScreening CandidateStatus = "Screening"
	CandidateInterview CandidateStatus = "Interview"
	CandidateOffered   CandidateStatus = "Offered"
	CandidateHired     CandidateStatus = "Hired"
	CandidateRejected  CandidateStatus = "Rejected"
)

// Candidate is an applicant for an embassy position.
type Candidate struct {
	Base
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone,omitempty"`
	Position      string          `json:"position"`
	AppliedDate   string          `json:"applied_date,omitempty"`
	InterviewDate string          `json:"interview_date,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        CandidateStatus `json:"status"`
}

// ContactStatus enumerates directory entry states.
type ContactStatus string

// Canonical contact statuses.
const (
	ContactActive   ContactStatus = "Active"
	ContactInactive ContactStatus = "Inactive"
)

// Contact is an entry in the embassy contact directory.
type Contact struct {
	Base
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	Category     string        `json:"category"`
	Organization string        `json:"organization,omitempty"`
	LastContact  string        `json:"last_contact,omitempty"`
	Status       ContactStatus `json:"status"`
}

// AppointmentStatus enumerates appointment lifecycle states.
type AppointmentStatus string

// Canonical appointment statuses.
const (
	AppointmentScheduled  AppointmentStatus = "Scheduled"
	AppointmentConfirmed  AppointmentStatus = "Confirmed"
	AppointmentInProgress AppointmentStatus = "In Progress"
	AppointmentCompleted  AppointmentStatus = "Completed"
	AppointmentCancelled  AppointmentStatus = "Cancelled"
	AppointmentNoShow     AppointmentStatus = "No Show"
)

// AppointmentType classifies the consular service being booked.
type AppointmentType string

// Supported appointment types.
const (
	AppointmentVisaInterview   AppointmentType = "Visa Interview"
	AppointmentDocumentReview  AppointmentType = "Document Review"
	AppointmentBusinessMeeting AppointmentType = "Business Meeting"
	AppointmentConsularService AppointmentType = "Consular Service"
	AppointmentEmergency       AppointmentType = "Emergency"
)

// Priority ranks appointment urgency.
type Priority string

// Supported appointment priorities.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// Appointment is a booked slot with an applicant or visitor.
type Appointment struct {
	Base
	Title         string            `json:"title"`
	ApplicantName string            `json:"applicant_name"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone,omitempty"`
	Type          AppointmentType   `json:"type"`
	Date          string            `json:"date"`
	Time          string            `json:"time"`
	Duration      int               `json:"duration"`
	Location      string            `json:"location"`
	Notes         string            `json:"notes,omitempty"`
	Priority      Priority          `json:"priority"`
	Status        AppointmentStatus `json:"status"`
}

// IndividualStatus enumerates in-country check states.
type IndividualStatus string

// Canonical individual statuses.
const (
	IndividualActive      IndividualStatus = "Active"
	IndividualInactive    IndividualStatus = "Inactive"
	IndividualUnderReview IndividualStatus = "Under Review"
)

// Individual is a person registered for the in-country presence check.
type Individual struct {
	Base
	Name           string           `json:"name"`
	Nationality    string           `json:"nationality"`
	Location       string           `json:"location,omitempty"`
	PassportNumber string           `json:"passport_number,omitempty"`
	Status         IndividualStatus `json:"status"`
}

// ArticleStatus enumerates editorial states.
type ArticleStatus string

// Canonical article statuses.
const (
	ArticleDraft       ArticleStatus = "Draft"
	ArticleUnderReview ArticleStatus = "Under Review"
	ArticlePublished   ArticleStatus = "Published"
)

// Article is a news item or guide published by the embassy.
type Article struct {
	Base
	Title         string        `json:"title"`
	Author        string        `json:"author"`
	Excerpt       string        `json:"excerpt,omitempty"`
	Content       string        `json:"content,omitempty"`
	Category      string        `json:"category,omitempty"`
	Tags          []string      `json:"tags"`
	PublishDate   string        `json:"publish_date,omitempty"`
	Views         int           `json:"views"`
	FeaturedImage string        `json:"featured_image,omitempty"`
	Status        ArticleStatus `json:"status"`
}

// CloneVisaApplication returns a deep copy of the application.
func CloneVisaApplication(v VisaApplication) VisaApplication {
	v.Documents = cloneStrings(v.Documents)
	return v
}

// CloneArticle returns a deep copy of the article.
func CloneArticle(a Article) Article {
	a.Tags = cloneStrings(a.Tags)
	return a
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
