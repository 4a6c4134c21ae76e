package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestChangedFieldsIgnoresBookkeeping(t *testing.T) {
	before := Contact{Base: Base{ID: "1", UpdatedAt: time.Unix(0, 0)}, Name: "Ana", Email: "ana@x", Status: ContactActive}
	after := before
	after.UpdatedAt = time.Unix(100, 0)
	after.Status = ContactInactive

	fields, err := ChangedFields(before, after)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !reflect.DeepEqual(fields, []string{"status"}) {
		t.Fatalf("unexpected fields %v", fields)
	}

	same, err := ChangedFields(before, before)
	if err != nil || len(same) != 0 {
		t.Fatalf("expected no diff, got %v %v", same, err)
	}
}

func TestChangedFieldsAgainstNil(t *testing.T) {
	fields, err := ChangedFields(nil, Individual{Name: "Ike"})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(fields) == 0 {
		t.Fatalf("expected fields for created record")
	}
	for _, f := range fields {
		if f == "updated_at" {
			t.Fatalf("bookkeeping field reported")
		}
	}
}

func TestChangeRecordID(t *testing.T) {
	c := Change{Entity: EntityArticle, Action: ActionDelete, Before: Article{Base: Base{ID: "7"}}}
	if c.RecordID() != "7" {
		t.Fatalf("unexpected id %q", c.RecordID())
	}
	if (Change{After: "not a record"}).RecordID() != "" {
		t.Fatalf("expected empty id for unknown payload")
	}
}
