package domain

import (
	"errors"
	"testing"
)

func TestClassifyField(t *testing.T) {
	cases := map[string]FieldClass{
		"page_number":        ClassCanonical,
		"min_amount":         ClassCanonical,
		"invoice_date_start": ClassCanonical,
		"status":             ClassCanonical,
		"invoice_number":     ClassIdentifier,
		"sender_name":        ClassSemantic,
		"description":        ClassSemantic,
	}
	for field, want := range cases {
		got, err := ClassifyField(field)
		if err != nil {
			t.Errorf("%s: %v", field, err)
			continue
		}
		if got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
}

func TestClassifyUnknownFieldFails(t *testing.T) {
	_, err := ClassifyField("tax_rate")
	if !errors.Is(err, ErrUnclassifiedField) {
		t.Fatalf("expected ErrUnclassifiedField, got %v", err)
	}
}

func TestQueryableFieldsCoverEveryClass(t *testing.T) {
	fields := QueryableFields()
	seen := map[FieldClass]bool{}
	for _, f := range fields {
		class, err := ClassifyField(f)
		if err != nil {
			t.Fatal(err)
		}
		seen[class] = true
	}
	for _, class := range []FieldClass{ClassCanonical, ClassIdentifier, ClassSemantic} {
		if !seen[class] {
			t.Errorf("no field classified as %q", class)
		}
	}
}
