package core

import (
	"context"
	"sort"
	"strings"

	"consulardesk/pkg/domain"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func sortedStrings(in []string) []string {
	sort.Strings(in)
	return in
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultSearchLimit
	case limit > maxSearchLimit:
		return maxSearchLimit
	}
	return limit
}

// Search runs a free text query across every collection. Results are grouped
// by entity in the order visas, contacts, appointments, articles, employees,
// candidates, individuals. Blank text yields no hits.
func (s *Service) Search(ctx context.Context, text string, limit int) ([]SearchHit, error) {
	text = strings.TrimSpace(text)
	limit = clampLimit(limit)
	hits := []SearchHit{}
	err := s.instrument(ctx, "global_search", "", "", func(ctx context.Context) (string, error) {
		if text == "" {
			return "", nil
		}
		if s.index != nil {
			found, err := s.index.Query(ctx, text, limit)
			if err == nil {
				hits = append(hits, found...)
				return "", nil
			}
			s.logger.Warn("search index query failed, scanning collections", "error", err)
		}
		return "", s.store.View(ctx, func(view domain.TransactionView) error {
			for _, docs := range [][]SearchDocument{
				s.visas.scan(view, text),
				s.contacts.scan(view, text),
				s.appointments.scan(view, text),
				s.articles.scan(view, text),
				s.employees.scan(view, text),
				s.candidates.scan(view, text),
				s.individuals.scan(view, text),
			} {
				for _, doc := range docs {
					if len(hits) == limit {
						return nil
					}
					hits = append(hits, doc.SearchHit)
				}
			}
			return nil
		})
	})
	return hits, err
}

// SearchOrder is the entity order used to group global search hits.
func SearchOrder() []EntityType {
	return []EntityType{
		EntityVisaApplication,
		EntityContact,
		EntityAppointment,
		EntityArticle,
		EntityEmployee,
		EntityCandidate,
		EntityIndividual,
	}
}

// Reindex pushes every stored record to the configured search index.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	var docs []SearchDocument
	err := s.instrument(ctx, "search_reindex", "", "", func(ctx context.Context) (string, error) {
		if err := s.store.View(ctx, func(view domain.TransactionView) error {
			docs = append(docs, s.visas.scan(view, "")...)
			docs = append(docs, s.contacts.scan(view, "")...)
			docs = append(docs, s.appointments.scan(view, "")...)
			docs = append(docs, s.articles.scan(view, "")...)
			docs = append(docs, s.employees.scan(view, "")...)
			docs = append(docs, s.candidates.scan(view, "")...)
			docs = append(docs, s.individuals.scan(view, "")...)
			return nil
		}); err != nil {
			return "", err
		}
		if len(docs) == 0 {
			return "", nil
		}
		return "", s.index.Index(ctx, docs)
	})
	return len(docs), err
}
