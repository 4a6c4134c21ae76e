package domain

import (
	"errors"
	"reflect"
	"testing"
)

func visaMatcher() Matcher[VisaApplication] {
	return Matcher[VisaApplication]{
		Entity: EntityVisaApplication,
		Search: []func(VisaApplication) string{
			func(v VisaApplication) string { return v.ApplicantName },
			func(v VisaApplication) string { return v.PassportNumber },
		},
		Dimensions: map[string]func(VisaApplication) string{
			"status": func(v VisaApplication) string { return string(v.Status) },
		},
	}
}

func sampleVisas() []VisaApplication {
	return []VisaApplication{
		{Base: Base{ID: "BV001"}, ApplicantName: "John Doe", PassportNumber: "P1", Status: VisaUnderReview},
		{Base: Base{ID: "BV002"}, ApplicantName: "Maria Garcia", PassportNumber: "P2", Status: VisaApproved},
		{Base: Base{ID: "BV003"}, ApplicantName: "Joanna Doe", PassportNumber: "X9", Status: VisaPending},
	}
}

func ids(records []VisaApplication) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Under Review":  "underreview",
		"UNDERREVIEW":   "underreview",
		" In Progress ": "inprogress",
		"":              "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterSearchAndStatus(t *testing.T) {
	records := sampleVisas()
	cases := []struct {
		name  string
		query Query
		want  []string
	}{
		{"empty query keeps all", Query{}, []string{"BV001", "BV002", "BV003"}},
		{"all sentinel", Query{Filters: map[string]string{"status": "all"}}, []string{"BV001", "BV002", "BV003"}},
		{"search case-insensitive", Query{Search: "  doe "}, []string{"BV001", "BV003"}},
		{"search passport", Query{Search: "x9"}, []string{"BV003"}},
		{"normalized status", Query{Filters: map[string]string{"status": "underreview"}}, []string{"BV001"}},
		{"search and status", Query{Search: "doe", Filters: map[string]string{"status": "Pending"}}, []string{"BV003"}},
		{"no match", Query{Search: "nobody"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Filter(records, visaMatcher(), tc.query)
			if err != nil {
				t.Fatalf("filter: %v", err)
			}
			if !reflect.DeepEqual(ids(got), tc.want) {
				t.Fatalf("got %v, want %v", ids(got), tc.want)
			}
		})
	}
}

func TestFilterIsIdempotentAndNonDestructive(t *testing.T) {
	records := sampleVisas()
	q := Query{Search: "doe"}
	once, err := Filter(records, visaMatcher(), q)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	twice, err := Filter(once, visaMatcher(), q)
	if err != nil {
		t.Fatalf("filter twice: %v", err)
	}
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Fatalf("filter not idempotent: %v vs %v", ids(once), ids(twice))
	}
	if len(records) != 3 || records[1].ID != "BV002" {
		t.Fatalf("input mutated: %v", ids(records))
	}
}

func TestFilterUnknownDimension(t *testing.T) {
	_, err := Filter(sampleVisas(), visaMatcher(), Query{Filters: map[string]string{"colour": "red"}})
	var unknown *UnknownFilterError
	if !errors.As(err, &unknown) || unknown.Dimension != "colour" {
		t.Fatalf("expected unknown filter error, got %v", err)
	}
	if _, err := Filter(sampleVisas(), visaMatcher(), Query{Filters: map[string]string{"colour": "all"}}); err != nil {
		t.Fatalf("inactive unknown dimension should be ignored: %v", err)
	}
}
