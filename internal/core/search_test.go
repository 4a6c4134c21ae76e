package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestSearchScansCollectionsInOrder(t *testing.T) {
	ctx := context.Background()
	svc := newSeededService(t)

	hits, err := svc.Search(ctx, "john", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected hits for john")
	}
	order := map[EntityType]int{}
	for i, entity := range SearchOrder() {
		order[entity] = i
	}
	for i := 1; i < len(hits); i++ {
		if order[hits[i-1].Type] > order[hits[i].Type] {
			t.Fatalf("hits out of group order: %s before %s", hits[i-1].Type, hits[i].Type)
		}
	}
	if hits[0].Type != EntityVisaApplication || hits[0].ID != "BV001" {
		t.Fatalf("expected BV001 first, got %+v", hits[0])
	}
	if hits[0].URL != "/api/v1/visas/BV001" || hits[0].Status != "Pending" {
		t.Fatalf("unexpected projection %+v", hits[0])
	}
}

func TestSearchBlankAndLimit(t *testing.T) {
	ctx := context.Background()
	svc := newSeededService(t)

	hits, err := svc.Search(ctx, "   ", 10)
	if err != nil {
		t.Fatalf("blank search: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Fatalf("blank text must yield an empty list, got %v", hits)
	}

	limited, err := svc.Search(ctx, "e", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(limited))
	}
	if clampLimit(0) != defaultSearchLimit || clampLimit(1000) != maxSearchLimit || clampLimit(7) != 7 {
		t.Fatalf("unexpected clamp behaviour")
	}
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[string]SearchDocument
	removed []string
	failing bool
	queries int
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: make(map[string]SearchDocument)} }

func indexKey(entity EntityType, id string) string { return string(entity) + "/" + id }

func (f *fakeIndex) Index(_ context.Context, docs []SearchDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range docs {
		f.docs[indexKey(doc.Type, doc.ID)] = doc
	}
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, entity EntityType, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, indexKey(entity, id))
	f.removed = append(f.removed, indexKey(entity, id))
	return nil
}

func (f *fakeIndex) Query(_ context.Context, text string, limit int) ([]SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.failing {
		return nil, errors.New("index unavailable")
	}
	var out []SearchHit
	for _, doc := range f.docs {
		if strings.Contains(strings.ToLower(doc.Text), strings.ToLower(text)) && len(out) < limit {
			out = append(out, doc.SearchHit)
		}
	}
	return out, nil
}

func TestSearchIndexKeptInStep(t *testing.T) {
	ctx := context.Background()
	idx := newFakeIndex()
	svc := newSeededService(t, WithSearchIndex(idx))

	doc, ok := idx.docs[indexKey(EntityVisaApplication, "TV001")]
	if !ok {
		t.Fatalf("creates must be indexed")
	}
	if !strings.Contains(doc.Text, "CA1234567") || doc.Seq != 8 {
		t.Fatalf("unexpected indexed document %+v", doc)
	}

	if _, _, err := svc.Contacts().Update(ctx, "1", func(c *Contact) error {
		c.Organization = "Malabo Chamber of Commerce"
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(idx.docs[indexKey(EntityContact, "1")].Text, "John Doe") {
		t.Fatalf("updated contact must be reindexed")
	}
	if _, err := svc.Contacts().Delete(ctx, "1", DeleteOptions{Confirmed: true}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := idx.docs[indexKey(EntityContact, "1")]; ok {
		t.Fatalf("deleted contact must leave the index")
	}

	hits, err := svc.Search(ctx, "ca1234567", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if idx.queries != 1 || len(hits) != 1 || hits[0].ID != "TV001" {
		t.Fatalf("expected the index to answer, queries=%d hits=%+v", idx.queries, hits)
	}
}

func TestSearchFallsBackWhenIndexFails(t *testing.T) {
	idx := newFakeIndex()
	svc := newSeededService(t, WithSearchIndex(idx))
	idx.failing = true

	hits, err := svc.Search(context.Background(), "Sarah Johnson", 10)
	if err != nil {
		t.Fatalf("search must not fail with a broken index: %v", err)
	}
	if len(hits) < 2 {
		t.Fatalf("expected the visa and article author hits, got %+v", hits)
	}
	if hits[0].ID != "TV001" {
		t.Fatalf("expected TV001 first, got %+v", hits[0])
	}
}

func TestReindex(t *testing.T) {
	ctx := context.Background()
	svc := newSeededService(t)
	if n, err := svc.Reindex(ctx); err != nil || n != 0 {
		t.Fatalf("reindex without index: n=%d err=%v", n, err)
	}

	idx := newFakeIndex()
	indexed := NewService(svc.Store(), WithSearchIndex(idx))
	n, err := indexed.Reindex(ctx)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	data := DefaultSampleData()
	want := len(data.Visas) + len(data.Employees) + len(data.Candidates) + len(data.Contacts) +
		len(data.Appointments) + len(data.Individuals) + len(data.Articles)
	if n != want || len(idx.docs) != want {
		t.Fatalf("expected %d documents, got n=%d indexed=%d", want, n, len(idx.docs))
	}
}
