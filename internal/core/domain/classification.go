package domain

import (
	"fmt"
	"sort"
)

// FieldClass assigns a retrievable attribute to one of three match regimes.
type FieldClass string

const (
	// ClassCanonical fields are hard filters: exact or range match, never
	// fuzzy. A canonical mismatch must exclude a record regardless of
	// vector similarity.
	ClassCanonical FieldClass = "canonical"
	// ClassIdentifier fields match exactly first, with a single fuzzy
	// re-execution if the exact match yields nothing.
	ClassIdentifier FieldClass = "identifier"
	// ClassSemantic fields are matched by vector or fuzzy similarity.
	ClassSemantic FieldClass = "semantic"
)

// fieldClasses is the static, exhaustive classification of every queryable
// field. It is fixed configuration: a field missing here is a defect, not a
// runtime decision.
var fieldClasses = map[string]FieldClass{
	"page_number":        ClassCanonical,
	"min_page":           ClassCanonical,
	"max_page":           ClassCanonical,
	"invoice_date_start": ClassCanonical,
	"invoice_date_end":   ClassCanonical,
	"min_amount":         ClassCanonical,
	"max_amount":         ClassCanonical,
	"status":             ClassCanonical,

	"invoice_number": ClassIdentifier,

	"sender_name": ClassSemantic,
	"filename":    ClassSemantic,
	"description": ClassSemantic,
	"query_text":  ClassSemantic,
}

// ClassifyField looks a field up in the static table.
func ClassifyField(name string) (FieldClass, error) {
	class, ok := fieldClasses[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnclassifiedField, name)
	}
	return class, nil
}

// QueryableFields returns every classified field name, sorted.
func QueryableFields() []string {
	out := make([]string, 0, len(fieldClasses))
	for name := range fieldClasses {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
