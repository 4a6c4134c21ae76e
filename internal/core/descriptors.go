package core

import (
	"strings"
	"time"

	"consulardesk/pkg/domain"
)

func today(now time.Time) string { return now.Format(domain.DateLayout) }

func defaultString(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

func searchText[T any](m domain.Matcher[T], rec T) string {
	parts := make([]string, 0, len(m.Search))
	for _, field := range m.Search {
		if v := field(rec); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

func visaDescriptor() Descriptor[VisaApplication] {
	m := domain.Matcher[VisaApplication]{
		Entity: EntityVisaApplication,
		Search: []func(VisaApplication) string{
			func(v VisaApplication) string { return v.ApplicantName },
			func(v VisaApplication) string { return v.PassportNumber },
			func(v VisaApplication) string { return v.Purpose },
			func(v VisaApplication) string { return v.ID },
		},
		Dimensions: map[string]func(VisaApplication) string{
			"status":      func(v VisaApplication) string { return string(v.Status) },
			"category":    func(v VisaApplication) string { return string(v.Category) },
			"nationality": func(v VisaApplication) string { return v.Nationality },
		},
	}
	return Descriptor[VisaApplication]{
		Entity:    EntityVisaApplication,
		Name:      "visas",
		Matcher:   m,
		Table:     func(tx domain.Transaction) domain.Table[VisaApplication] { return tx.VisaApplications() },
		View:      func(v domain.TransactionView) domain.TableView[VisaApplication] { return v.VisaApplications() },
		Base:      func(v *VisaApplication) *domain.Base { return &v.Base },
		Status:    func(v VisaApplication) string { return string(v.Status) },
		SetStatus: func(v *VisaApplication, s string) { v.Status = domain.VisaStatus(s) },
		Validate:  VisaApplication.Validate,
		Clone:     domain.CloneVisaApplication,
		Freeze: func(before VisaApplication, after *VisaApplication) error {
			if !strings.EqualFold(strings.TrimSpace(string(after.Category)), string(before.Category)) {
				return &domain.ValidationError{
					Entity: EntityVisaApplication,
					Fields: []domain.FieldError{{Field: "category", Message: "cannot change after creation"}},
				}
			}
			after.Category = before.Category
			return nil
		},
		Defaults: func(v *VisaApplication, now time.Time) {
			v.Category = domain.VisaCategory(strings.ToLower(strings.TrimSpace(string(v.Category))))
			defaultString(&v.SubmissionDate, today(now))
			if v.Documents == nil {
				v.Documents = []string{}
			}
		},
		Document: func(v VisaApplication) SearchDocument {
			return SearchDocument{
				SearchHit: SearchHit{
					Title:       v.ApplicantName,
					Subtitle:    "Application " + v.ID,
					Description: v.Purpose,
					Date:        v.SubmissionDate,
				},
				Text: searchText(m, v),
			}
		},
	}
}

func employeeDescriptor() Descriptor[Employee] {
	m := domain.Matcher[Employee]{
		Entity: EntityEmployee,
		Search: []func(Employee) string{
			func(e Employee) string { return e.Name },
			func(e Employee) string { return e.Email },
			func(e Employee) string { return e.Position },
		},
		Dimensions: map[string]func(Employee) string{
			"status":     func(e Employee) string { return string(e.Status) },
			"department": func(e Employee) string { return e.Department },
		},
	}
	return Descriptor[Employee]{
		Entity:    EntityEmployee,
		Name:      "employees",
		Matcher:   m,
		Table:     func(tx domain.Transaction) domain.Table[Employee] { return tx.Employees() },
		View:      func(v domain.TransactionView) domain.TableView[Employee] { return v.Employees() },
		Base:      func(e *Employee) *domain.Base { return &e.Base },
		Status:    func(e Employee) string { return string(e.Status) },
		SetStatus: func(e *Employee, s string) { e.Status = domain.EmployeeStatus(s) },
		Validate:  Employee.Validate,
		Defaults: func(e *Employee, now time.Time) {
			defaultString(&e.HireDate, today(now))
		},
		Document: func(e Employee) SearchDocument {
			return SearchDocument{
				SearchHit: SearchHit{Title: e.Name, Subtitle: e.Position, Description: e.Email, Date: e.HireDate},
				Text:      searchText(m, e),
			}
		},
	}
}

func candidateDescriptor() Descriptor[Candidate] {
	m := domain.Matcher[Candidate]{
		Entity: EntityCandidate,
		Search: []func(Candidate) string{
			func(c Candidate) string { return c.Name },
			func(c Candidate) string { return c.Email },
			func(c Candidate) string { return c.Position },
		},
		Dimensions: map[string]func(Candidate) string{
			"status":   func(c Candidate) string { return string(c.Status) },
			"position": func(c Candidate) string { return c.Position },
		},
	}
	return Descriptor[Candidate]{
		Entity:    EntityCandidate,
		Name:      "candidates",
		Matcher:   m,
		Table:     func(tx domain.Transaction) domain.Table[Candidate] { return tx.Candidates() },
		View:      func(v domain.TransactionView) domain.TableView[Candidate] { return v.Candidates() },
		Base:      func(c *Candidate) *domain.Base { return &c.Base },
		Status:    func(c Candidate) string { return string(c.Status) },
		SetStatus: func(c *Candidate, s string) { c.Status = domain.CandidateStatus(s) },
		Validate:  Candidate.Validate,
		Defaults: func(c *Candidate, now time.Time) {
			defaultString(&c.AppliedDate, today(now))
		},
		Document: func(c Candidate) SearchDocument {
			date := c.InterviewDate
			if date == "" {
				date = c.AppliedDate
			}
			return SearchDocument{
				SearchHit: SearchHit{Title: c.Name, Subtitle: c.Position, Description: c.Email, Date: date},
				Text:      searchText(m, c),
			}
		},
	}
}

func contactDescriptor() Descriptor[Contact] {
	m := domain.Matcher[Contact]{
		Entity: EntityContact,
		Search: []func(Contact) string{
			func(c Contact) string { return c.Name },
			func(c Contact) string { return c.Email },
			func(c Contact) string { return c.Organization },
		},
		Dimensions: map[string]func(Contact) string{
			"status":   func(c Contact) string { return string(c.Status) },
			"category": func(c Contact) string { return c.Category },
		},
	}
	return Descriptor[Contact]{
		Entity:    EntityContact,
		Name:      "contacts",
		Matcher:   m,
		Table:     func(tx domain.Transaction) domain.Table[Contact] { return tx.Contacts() },
		View:      func(v domain.TransactionView) domain.TableView[Contact] { return v.Contacts() },
		Base:      func(c *Contact) *domain.Base { return &c.Base },
		Status:    func(c Contact) string { return string(c.Status) },
		SetStatus: func(c *Contact, s string) { c.Status = domain.ContactStatus(s) },
		Validate:  Contact.Validate,
		Defaults: func(c *Contact, _ time.Time) {
			defaultString(&c.Category, "General")
		},
		Document: func(c Contact) SearchDocument {
			return SearchDocument{
				SearchHit: SearchHit{Title: c.Name, Subtitle: c.Organization, Description: c.Email, Date: c.LastContact},
				Text:      searchText(m, c),
			}
		},
	}
}

func appointmentDescriptor() Descriptor[Appointment] {
	m := domain.Matcher[Appointment]{
		Entity: EntityAppointment,
		Search: []func(Appointment) string{
			func(a Appointment) string { return a.ApplicantName },
			func(a Appointment) string { return a.Email },
			func(a Appointment) string { return a.Title },
		},
		Dimensions: map[string]func(Appointment) string{
			"status":   func(a Appointment) string { return string(a.Status) },
			"type":     func(a Appointment) string { return string(a.Type) },
			"priority": func(a Appointment) string { return string(a.Priority) },
			"date":     func(a Appointment) string { return a.Date },
		},
	}
	return Descriptor[Appointment]{
		Entity:    EntityAppointment,
		Name:      "appointments",
		Matcher:   m,
		Table:     func(tx domain.Transaction) domain.Table[Appointment] { return tx.Appointments() },
		View:      func(v domain.TransactionView) domain.TableView[Appointment] { return v.Appointments() },
		Base:      func(a *Appointment) *domain.Base { return &a.Base },
		Status:    func(a Appointment) string { return string(a.Status) },
		SetStatus: func(a *Appointment, s string) { a.Status = domain.AppointmentStatus(s) },
		Validate:  Appointment.Validate,
		Defaults: func(a *Appointment, _ time.Time) {
			if a.Type == "" {
				a.Type = domain.AppointmentVisaInterview
			}
			if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.ApplicantName) != "" {
				a.Title = string(a.Type) + " - " + a.ApplicantName
			}
			if a.Duration == 0 {
				a.Duration = 60
			}
			defaultString(&a.Location, "Main Office")
			if a.Priority == "" {
				a.Priority = domain.PriorityMedium
			}
		},
		Document: func(a Appointment) SearchDocument {
			return SearchDocument{
				SearchHit: SearchHit{Title: a.Title, Subtitle: a.Location, Description: string(a.Type), Date: strings.TrimSpace(a.Date + " " + a.Time)},
				Text:      searchText(m, a),
			}
		},
	}
}

func individualDescriptor() Descriptor[Individual] {
	m := domain.Matcher[Individual]{
		Entity: EntityIndividual,
		Search: []func(Individual) string{
			func(i Individual) string { return i.Name },
			func(i Individual) string { return i.ID },
		},
		Dimensions: map[string]func(Individual) string{
			"status":      func(i Individual) string { return string(i.Status) },
			"nationality": func(i Individual) string { return i.Nationality },
		},
	}
	return Descriptor[Individual]{
		Entity:    EntityIndividual,
		Name:      "individuals",
		Matcher:   m,
		Table:     func(tx domain.Transaction) domain.Table[Individual] { return tx.Individuals() },
		View:      func(v domain.TransactionView) domain.TableView[Individual] { return v.Individuals() },
		Base:      func(i *Individual) *domain.Base { return &i.Base },
		Status:    func(i Individual) string { return string(i.Status) },
		SetStatus: func(i *Individual, s string) { i.Status = domain.IndividualStatus(s) },
		Validate:  Individual.Validate,
		Document: func(i Individual) SearchDocument {
			return SearchDocument{
				SearchHit: SearchHit{Title: i.Name, Subtitle: i.Nationality, Description: i.Location},
				Text:      searchText(m, i),
			}
		},
	}
}

func articleDescriptor() Descriptor[Article] {
	m := domain.Matcher[Article]{
		Entity: EntityArticle,
		Search: []func(Article) string{
			func(a Article) string { return a.Title },
			func(a Article) string { return a.Author },
		},
		Dimensions: map[string]func(Article) string{
			"status":   func(a Article) string { return string(a.Status) },
			"category": func(a Article) string { return a.Category },
		},
	}
	return Descriptor[Article]{
		Entity:    EntityArticle,
		Name:      "articles",
		Matcher:   m,
		Table:     func(tx domain.Transaction) domain.Table[Article] { return tx.Articles() },
		View:      func(v domain.TransactionView) domain.TableView[Article] { return v.Articles() },
		Base:      func(a *Article) *domain.Base { return &a.Base },
		Status:    func(a Article) string { return string(a.Status) },
		SetStatus: func(a *Article, s string) { a.Status = domain.ArticleStatus(s) },
		Validate:  Article.Validate,
		Clone:     domain.CloneArticle,
		Defaults: func(a *Article, _ time.Time) {
			if a.Tags == nil {
				a.Tags = []string{}
			}
		},
		Document: func(a Article) SearchDocument {
			return SearchDocument{
				SearchHit: SearchHit{Title: a.Title, Subtitle: a.Category, Description: a.Excerpt, Date: a.PublishDate},
				Text:      searchText(m, a),
			}
		},
	}
}
