package core

import (
	"context"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"consulardesk/pkg/domain"
)

const (
	summaryCacheKey = "dashboard:summary"
	recentVisaLimit = 5
)

// RecentVisa is a row of the recent applications panel.
type RecentVisa struct {
	ID             string              `json:"id"`
	ApplicantName  string              `json:"applicant_name"`
	Category       domain.VisaCategory `json:"category"`
	Status         domain.VisaStatus   `json:"status"`
	SubmissionDate string              `json:"submission_date"`
}

// Summary aggregates the dashboard stat cards.
type Summary struct {
	Date                  string                        `json:"date"`
	TotalVisas            int                           `json:"total_visas"`
	PendingReview         int                           `json:"pending_review"`
	ApprovedToday         int                           `json:"approved_today"`
	PublishedArticles     int                           `json:"published_articles"`
	TodayAppointments     int                           `json:"today_appointments"`
	ScheduledAppointments int                           `json:"scheduled_appointments"`
	UrgentAppointments    int                           `json:"urgent_appointments"`
	StatusCounts          map[EntityType]map[string]int `json:"status_counts"`
	RecentVisas           []RecentVisa                  `json:"recent_visas"`
	GeneratedAt           time.Time                     `json:"generated_at"`
}

// Summary computes the dashboard figures, serving from the summary cache when
// one is configured and still holds a fresh copy.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	err := s.instrument(ctx, "dashboard_summary", "", "", func(ctx context.Context) (string, error) {
		if cached, ok := s.cachedSummary(ctx); ok {
			out = cached
			return "", nil
		}
		if err := s.store.View(ctx, func(view domain.TransactionView) error {
			out = s.buildSummary(view)
			return nil
		}); err != nil {
			return "", err
		}
		s.storeSummary(ctx, out)
		return "", nil
	})
	return out, err
}

func (s *Service) cachedSummary(ctx context.Context) (Summary, bool) {
	if s.cache == nil {
		return Summary{}, false
	}
	raw, ok, err := s.cache.Get(ctx, summaryCacheKey)
	if err != nil {
		s.logger.Warn("summary cache read failed", "error", err)
		return Summary{}, false
	}
	if !ok {
		return Summary{}, false
	}
	var out Summary
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn("summary cache entry unreadable", "error", err)
		return Summary{}, false
	}
	return out, true
}

func (s *Service) storeSummary(ctx context.Context, summary Summary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, summaryCacheKey, raw, s.cacheTTL); err != nil {
		s.logger.Warn("summary cache write failed", "error", err)
	}
}

func (s *Service) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, summaryCacheKey); err != nil {
		s.logger.Warn("summary cache invalidation failed", "error", err)
	}
}

// localNow returns the current time in the embassy time zone.
func localNow(now time.Time, settings Settings) time.Time {
	if loc, err := time.LoadLocation(settings.System.Timezone); err == nil && settings.System.Timezone != "" {
		return now.In(loc)
	}
	return now
}

func (s *Service) buildSummary(view domain.TransactionView) Summary {
	now := localNow(s.clock.Now(), view.Settings())
	date := now.Format(domain.DateLayout)
	out := Summary{
		Date:         date,
		StatusCounts: make(map[EntityType]map[string]int),
		RecentVisas:  []RecentVisa{},
		GeneratedAt:  s.clock.Now(),
	}

	visas := view.VisaApplications().List()
	out.TotalVisas = len(visas)
	for _, v := range visas {
		switch v.Status {
		case domain.VisaPending, domain.VisaUnderReview:
			out.PendingReview++
		case domain.VisaApproved:
			if v.ProcessingDate == date || (!v.UpdatedAt.IsZero() && v.UpdatedAt.In(now.Location()).Format(domain.DateLayout) == date) {
				out.ApprovedToday++
			}
		}
	}
	recent := append([]VisaApplication(nil), visas...)
	sort.SliceStable(recent, func(i, j int) bool {
		if recent[i].SubmissionDate != recent[j].SubmissionDate {
			return recent[i].SubmissionDate > recent[j].SubmissionDate
		}
		return recent[i].Seq > recent[j].Seq
	})
	if len(recent) > recentVisaLimit {
		recent = recent[:recentVisaLimit]
	}
	for _, v := range recent {
		out.RecentVisas = append(out.RecentVisas, RecentVisa{
			ID:             v.ID,
			ApplicantName:  v.ApplicantName,
			Category:       v.Category,
			Status:         v.Status,
			SubmissionDate: v.SubmissionDate,
		})
	}

	for _, a := range view.Articles().List() {
		if a.Status == domain.ArticlePublished {
			out.PublishedArticles++
		}
	}
	for _, a := range view.Appointments().List() {
		if a.Date == date {
			out.TodayAppointments++
		}
		if a.Status == domain.AppointmentScheduled {
			out.ScheduledAppointments++
		}
		if a.Priority == domain.PriorityUrgent {
			out.UrgentAppointments++
		}
	}

	count(out.StatusCounts, s.visas, view)
	count(out.StatusCounts, s.employees, view)
	count(out.StatusCounts, s.candidates, view)
	count(out.StatusCounts, s.contacts, view)
	count(out.StatusCounts, s.appointments, view)
	count(out.StatusCounts, s.individuals, view)
	count(out.StatusCounts, s.articles, view)
	return out
}

func count[T any](into map[EntityType]map[string]int, c *Collection[T], view domain.TransactionView) {
	counts := make(map[string]int)
	for _, state := range c.machine.States() {
		counts[state] = 0
	}
	for _, rec := range c.desc.View(view).List() {
		counts[c.desc.Status(rec)]++
	}
	into[c.desc.Entity] = counts
}
