package domain

import (
	"strings"
	"time"
)

const (
	// DateLayout is the calendar date format used across records.
	DateLayout = "2006-01-02"
	// TimeLayout is the wall clock format used by appointments.
	TimeLayout = "15:04"
)

// Validate checks the fields required to register a visa application.
func (v VisaApplication) Validate() error {
	c := fieldCheck{entity: EntityVisaApplication}
	c.required("applicant_name", v.ApplicantName)
	c.required("passport_number", v.PassportNumber)
	c.required("contact_email", v.ContactEmail)
	if !v.Category.Valid() {
		c.fail("category", "must be one of business, student, tourist")
	}
	optionalDate(&c, "submission_date", v.SubmissionDate)
	optionalDate(&c, "processing_date", v.ProcessingDate)
	optionalDate(&c, "valid_until", v.ValidUntil)
	return c.err()
}

// Validate checks the fields required to register an employee.
func (e Employee) Validate() error {
	c := fieldCheck{entity: EntityEmployee}
	c.required("name", e.Name)
	c.required("email", e.Email)
	optionalDate(&c, "hire_date", e.HireDate)
	return c.err()
}

// Validate checks the fields required to register a candidate.
func (cand Candidate) Validate() error {
	c := fieldCheck{entity: EntityCandidate}
	c.required("name", cand.Name)
	c.required("email", cand.Email)
	c.required("position", cand.Position)
	optionalDate(&c, "interview_date", cand.InterviewDate)
	return c.err()
}

// Validate checks the fields required to register a contact.
func (ct Contact) Validate() error {
	c := fieldCheck{entity: EntityContact}
	c.required("name", ct.Name)
	c.required("email", ct.Email)
	return c.err()
}

// Validate checks the fields required to book an appointment.
func (a Appointment) Validate() error {
	c := fieldCheck{entity: EntityAppointment}
	c.required("applicant_name", a.ApplicantName)
	c.required("email", a.Email)
	c.required("date", a.Date)
	c.required("time", a.Time)
	optionalDate(&c, "date", a.Date)
	if strings.TrimSpace(a.Time) != "" {
		if _, err := time.Parse(TimeLayout, a.Time); err != nil {
			c.fail("time", "must use HH:MM")
		}
	}
	if a.Duration < 0 {
		c.fail("duration", "must not be negative")
	}
	return c.err()
}

// Validate checks the fields required to register an individual.
func (i Individual) Validate() error {
	c := fieldCheck{entity: EntityIndividual}
	c.required("name", i.Name)
	c.required("nationality", i.Nationality)
	return c.err()
}

// Validate checks the fields required to save an article.
func (a Article) Validate() error {
	c := fieldCheck{entity: EntityArticle}
	c.required("title", a.Title)
	c.required("author", a.Author)
	if a.Views < 0 {
		c.fail("views", "must not be negative")
	}
	return c.err()
}

func optionalDate(c *fieldCheck, field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		c.fail(field, "must use YYYY-MM-DD")
	}
}
