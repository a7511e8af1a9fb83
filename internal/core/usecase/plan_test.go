package usecase

import (
	"errors"
	"testing"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

func TestPlanCanonicalBeforeVector(t *testing.T) {
	planner := NewQueryPlanner(20)

	plan, err := planner.Plan(domain.Intent{
		Kind:          domain.KindLineItems,
		Filters:       map[string]string{"page_number": "2", "sender_name": "Acme"},
		SemanticQuery: "office chairs",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(plan.Filters) != 2 {
		t.Fatalf("filters = %+v", plan.Filters)
	}
	if plan.Filters[0].Class != domain.ClassCanonical || plan.Filters[0].Field != "page_number" {
		t.Fatalf("canonical stage must come first, got %+v", plan.Filters[0])
	}
	if plan.Filters[1].Op != domain.FilterContains {
		t.Fatalf("semantic filter op = %q", plan.Filters[1].Op)
	}
	if plan.Vector == nil || !plan.Vector.Scoped {
		t.Fatalf("vector stage must exist and be scoped, got %+v", plan.Vector)
	}
}

func TestPlanRangeOps(t *testing.T) {
	planner := NewQueryPlanner(20)

	plan, err := planner.Plan(domain.Intent{
		Kind: domain.KindInvoiceMetadata,
		Filters: map[string]string{
			"min_amount":         "100.5",
			"max_amount":         "900",
			"invoice_date_start": "2024-01-01",
			"invoice_date_end":   "2024-06-30",
			"status":             "COMPLETED",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ops := map[string]domain.FilterOp{}
	for _, f := range plan.Filters {
		ops[f.Field] = f.Op
	}
	want := map[string]domain.FilterOp{
		"min_amount":         domain.FilterGTE,
		"max_amount":         domain.FilterLTE,
		"invoice_date_start": domain.FilterGTE,
		"invoice_date_end":   domain.FilterLTE,
		"status":             domain.FilterEq,
	}
	for field, op := range want {
		if ops[field] != op {
			t.Errorf("%s op = %q, want %q", field, ops[field], op)
		}
	}
}

func TestPlanIdentifierStage(t *testing.T) {
	planner := NewQueryPlanner(20)

	plan, err := planner.Plan(domain.Intent{
		Kind:    domain.KindLineItems,
		Filters: map[string]string{"invoice_number": "INV-2024-001"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Identifier == nil {
		t.Fatal("identifier stage missing")
	}
	if !plan.Identifier.FallbackFuzzy || plan.Identifier.Fuzzy {
		t.Fatalf("identifier stage = %+v, want fallback annotated, not yet fuzzy", plan.Identifier)
	}

	fuzzy := plan.WithFuzzyIdentifier()
	if !fuzzy.Identifier.Fuzzy {
		t.Fatal("WithFuzzyIdentifier must set Fuzzy")
	}
	if plan.Identifier.Fuzzy {
		t.Fatal("WithFuzzyIdentifier must not mutate the original plan")
	}
}

func TestPlanUnclassifiedFieldFails(t *testing.T) {
	planner := NewQueryPlanner(20)

	_, err := planner.Plan(domain.Intent{
		Kind:    domain.KindLineItems,
		Filters: map[string]string{"warehouse_zone": "A1"},
	})
	if !errors.Is(err, domain.ErrUnclassifiedField) {
		t.Fatalf("expected ErrUnclassifiedField, got %v", err)
	}
}

func TestPlanInvalidCanonicalValue(t *testing.T) {
	planner := NewQueryPlanner(20)

	cases := map[string]string{
		"page_number":        "two",
		"min_amount":         "lots",
		"invoice_date_start": "March 2024",
	}
	for field, value := range cases {
		_, err := planner.Plan(domain.Intent{
			Kind:    domain.KindLineItems,
			Filters: map[string]string{field: value},
		})
		if !errors.Is(err, domain.ErrInvalidFilter) {
			t.Errorf("%s=%q: expected ErrInvalidFilter, got %v", field, value, err)
		}
	}
}

func TestPlanNoVectorStageWithoutSemanticQuery(t *testing.T) {
	planner := NewQueryPlanner(20)

	plan, err := planner.Plan(domain.Intent{
		Kind:    domain.KindLineItems,
		Filters: map[string]string{"page_number": "1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Vector != nil {
		t.Fatalf("structured-only query must have no vector stage, got %+v", plan.Vector)
	}
}

func TestPlanUnscopedVectorStage(t *testing.T) {
	planner := NewQueryPlanner(20)

	plan, err := planner.Plan(domain.Intent{
		Kind:          domain.KindLineItems,
		SemanticQuery: "cleaning supplies",
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Vector == nil || plan.Vector.Scoped {
		t.Fatalf("filterless query must carry an unscoped vector stage, got %+v", plan.Vector)
	}
}

func TestPlanLimits(t *testing.T) {
	planner := NewQueryPlanner(20)

	plan, err := planner.Plan(domain.Intent{Kind: domain.KindLineItems, SemanticQuery: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Limit != 20 {
		t.Fatalf("default limit = %d", plan.Limit)
	}

	plan, err = planner.Plan(domain.Intent{Kind: domain.KindInvoiceMetadata, Limit: 500})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Limit != MetadataResultCap {
		t.Fatalf("metadata limit = %d, want cap %d", plan.Limit, MetadataResultCap)
	}
}
