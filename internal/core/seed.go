package core

import (
	"context"
	"fmt"

	"consulardesk/pkg/domain"
)

// SampleData is the demonstration dataset the desk ships with.
type SampleData struct {
	Visas        []VisaApplication
	Employees    []Employee
	Candidates   []Candidate
	Contacts     []Contact
	Appointments []Appointment
	Individuals  []Individual
	Articles     []Article
}

func visa(category domain.VisaCategory, name, passport, nationality, purpose, email, submitted string, status domain.VisaStatus) VisaApplication {
	return VisaApplication{
		Category:       category,
		ApplicantName:  name,
		PassportNumber: passport,
		Nationality:    nationality,
		Purpose:        purpose,
		ContactEmail:   email,
		SubmissionDate: submitted,
		Status:         status,
		Documents:      []string{},
	}
}

// DefaultSampleData returns the built-in dataset.
func DefaultSampleData() SampleData {
	tourist := func(name, passport, nationality, purpose, email, submitted, processed, validUntil string, arrival, departure string, status domain.VisaStatus) VisaApplication {
		v := visa(domain.VisaTourist, name, passport, nationality, purpose, email, submitted, status)
		v.ProcessingDate = processed
		v.ValidUntil = validUntil
		v.TravelDates = domain.TravelDates{Arrival: arrival, Departure: departure}
		v.Documents = []string{"passport", "photo", "itinerary"}
		return v
	}
	return SampleData{
		Visas: []VisaApplication{
			visa(domain.VisaBusiness, "John Doe", "GB4455667", "British", "Trade negotiations", "john.doe@example.com", "2023-10-26", domain.VisaPending),
			visa(domain.VisaBusiness, "Jane Smith", "US1122334", "American", "Investment conference", "jane.smith@example.com", "2023-10-20", domain.VisaApproved),
			visa(domain.VisaBusiness, "Peter Jones", "IE9988776", "Irish", "Supplier audit", "peter.jones@example.com", "2023-10-15", domain.VisaRejected),
			visa(domain.VisaStudent, "Alice Smith", "FR2233445", "French", "Graduate studies", "alice.smith@example.com", "2023-08-15", domain.VisaApproved),
			visa(domain.VisaStudent, "Bob Johnson", "NG5566778", "Nigerian", "Language course", "bob.johnson@example.com", "2023-09-01", domain.VisaPending),
			visa(domain.VisaStudent, "Charlie Brown", "CM3344556", "Cameroonian", "Exchange semester", "charlie.brown@example.com", "2023-09-10", domain.VisaRejected),
			visa(domain.VisaStudent, "Diana Prince", "GR6677889", "Greek", "Research fellowship", "diana.prince@example.com", "2023-09-12", domain.VisaApproved),
			tourist("Sarah Johnson", "CA1234567", "Canadian", "Tourism and sightseeing", "sarah.johnson@example.com", "2024-01-10", "2024-01-15", "2024-07-15", "2024-02-01", "2024-02-14", domain.VisaApproved),
			tourist("Michael Brown", "US9876543", "American", "Wildlife photography", "michael.brown@example.com", "2024-01-12", "", "", "2024-03-05", "2024-03-20", domain.VisaPending),
			tourist("Emma Wilson", "AU5555555", "Australian", "Cultural exploration", "emma.wilson@example.com", "2024-01-14", "2024-01-17", "", "2024-02-20", "2024-03-02", domain.VisaUnderReview),
			tourist("Hans Mueller", "DE7777777", "German", "Beach vacation", "hans.mueller@example.com", "2024-01-08", "2024-01-13", "", "2024-02-10", "2024-02-24", domain.VisaRejected),
		},
		Employees: []Employee{
			{Name: "John Smith", Email: "john.smith@embassy.gov", Position: "Consular Officer", Department: "Consular", HireDate: "2019-03-01", Status: domain.EmployeeActive},
			{Name: "Jane Doe", Email: "jane.doe@embassy.gov", Position: "Administrative Assistant", Department: "Administration", HireDate: "2020-06-15", Status: domain.EmployeeActive},
			{Name: "Peter Jones", Email: "peter.jones@embassy.gov", Position: "Visa Specialist", Department: "Consular", HireDate: "2021-01-11", Status: domain.EmployeeActive},
			{Name: "Maria Garcia", Email: "maria.garcia@embassy.gov", Position: "Press Attache", Department: "Communications", HireDate: "2018-09-03", Status: domain.EmployeeInactive},
		},
		Candidates: []Candidate{
			{Name: "John Doe", Email: "john.doe@mail.com", Position: "Visa Clerk", AppliedDate: "2024-01-02", Status: domain.CandidateApplied},
			{Name: "Jane Smith", Email: "jane.smith@mail.com", Position: "Translator", AppliedDate: "2023-12-18", InterviewDate: "2024-01-22", Status: domain.CandidateInterview},
			{Name: "Peter Jones", Email: "peter.jones@mail.com", Position: "Driver", AppliedDate: "2023-12-05", Status: domain.CandidateScreening},
		},
		Contacts: []Contact{
			{Name: "John Doe", Email: "john.doe@example.com", Phone: "123-456-7890", Category: "Business", Status: domain.ContactActive},
			{Name: "Jane Smith", Email: "jane.smith@example.com", Phone: "098-765-4321", Category: "Student", Status: domain.ContactActive},
			{Name: "Peter Jones", Email: "peter.jones@example.com", Phone: "555-123-4567", Category: "Tourist", Status: domain.ContactActive},
			{Name: "Maria Rodriguez", Email: "maria.rodriguez@gov.es", Organization: "Spanish Ministry of Foreign Affairs", Category: "Government", LastContact: "2024-01-12", Status: domain.ContactActive},
		},
		Appointments: []Appointment{
			{Title: "Tourist Visa Interview", ApplicantName: "John Smith", Email: "john.smith@email.com", Type: domain.AppointmentVisaInterview, Date: "2024-01-16", Time: "10:00", Duration: 30, Location: "Interview Room 1", Priority: domain.PriorityMedium, Status: domain.AppointmentScheduled},
			{Title: "Business Partnership Meeting", ApplicantName: "Maria Rodriguez", Email: "maria@techcorp.com", Type: domain.AppointmentBusinessMeeting, Date: "2024-01-16", Time: "14:30", Duration: 60, Location: "Conference Room A", Notes: "Trade agreement discussion", Priority: domain.PriorityHigh, Status: domain.AppointmentConfirmed},
			{Title: "Emergency Document Service", ApplicantName: "James Wilson", Email: "james.wilson@email.com", Type: domain.AppointmentEmergency, Date: "2024-01-15", Time: "16:00", Duration: 45, Location: "Emergency Services Desk", Priority: domain.PriorityUrgent, Status: domain.AppointmentInProgress},
		},
		Individuals: []Individual{
			{Name: "John Doe", Nationality: "Guinean", Location: "Ankara, Turkey", Status: domain.IndividualActive},
			{Name: "Jane Smith", Nationality: "Turkish", Location: "Malabo, Guinea", Status: domain.IndividualInactive},
			{Name: "Peter Jones", Nationality: "Guinean", Location: "Istanbul, Turkey", Status: domain.IndividualActive},
			{Name: "Fatima Diallo", Nationality: "Guinean", Location: "Conakry, Guinea", Status: domain.IndividualInactive},
		},
		Articles: []Article{
			{Title: "Embassy Services Update", Author: "Admin User", Category: "News", Status: domain.ArticlePublished, PublishDate: "2024-01-15", Views: 1250, Excerpt: "Important updates regarding embassy services and new procedures.", Tags: []string{"services"}},
			{Title: "Visa Processing Guidelines", Author: "John Smith", Category: "Guides", Status: domain.ArticleDraft, PublishDate: "2024-01-14", Excerpt: "Step by step guide for visa applicants.", Tags: []string{"visa"}},
			{Title: "Holiday Schedule 2024", Author: "Maria Garcia", Category: "Announcements", Status: domain.ArticlePublished, PublishDate: "2024-01-10", Views: 890, Excerpt: "Embassy closing days for 2024.", Tags: []string{"schedule"}},
			{Title: "New Immigration Policies", Author: "David Chen", Category: "Policy", Status: domain.ArticleUnderReview, PublishDate: "2024-01-08", Excerpt: "Summary of the latest immigration policy changes.", Tags: []string{"policy", "immigration"}},
			{Title: "Document Requirements", Author: "Sarah Johnson", Category: "Guides", Status: domain.ArticlePublished, PublishDate: "2024-01-05", Views: 2100, Excerpt: "Updated visa application requirements.", Tags: []string{"visa", "documents"}},
		},
	}
}

func seedAll[T any](ctx context.Context, c *Collection[T], records []T) error {
	for i, rec := range records {
		if _, _, err := c.Create(ctx, rec); err != nil {
			return fmt.Errorf("seed %s #%d: %w", c.Name(), i+1, err)
		}
	}
	return nil
}

// Seed creates every record of data through the regular create path.
func Seed(ctx context.Context, svc *Service, data SampleData) error {
	steps := []func() error{
		func() error { return seedAll(ctx, svc.Visas(), data.Visas) },
		func() error { return seedAll(ctx, svc.Employees(), data.Employees) },
		func() error { return seedAll(ctx, svc.Candidates(), data.Candidates) },
		func() error { return seedAll(ctx, svc.Contacts(), data.Contacts) },
		func() error { return seedAll(ctx, svc.Appointments(), data.Appointments) },
		func() error { return seedAll(ctx, svc.Individuals(), data.Individuals) },
		func() error { return seedAll(ctx, svc.Articles(), data.Articles) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
