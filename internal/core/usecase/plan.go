package usecase

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// MetadataResultCap bounds invoice-metadata lookups so an "all invoices"
// question cannot overflow the synthesis context.
const MetadataResultCap = 50

// QueryPlanner turns a structured intent into an ordered query plan:
// canonical filter stages first, then semantic-class fuzzy filters, then the
// optional identifier stage, then the optional vector stage scoped to the
// filtered set.
type QueryPlanner struct {
	defaultLimit int
}

func NewQueryPlanner(defaultLimit int) *QueryPlanner {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &QueryPlanner{defaultLimit: defaultLimit}
}

func (p *QueryPlanner) Plan(intent domain.Intent) (domain.QueryPlan, error) {
	plan := domain.QueryPlan{Kind: intent.Kind}

	var canonical, fuzzy []domain.FilterStage

	// Iterate in sorted field order so plans are deterministic.
	fields := make([]string, 0, len(intent.Filters))
	for field := range intent.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := intent.Filters[field]
		if value == "" {
			continue
		}

		class, err := domain.ClassifyField(field)
		if err != nil {
			return domain.QueryPlan{}, err
		}

		switch class {
		case domain.ClassCanonical:
			if err := validateCanonicalValue(field, value); err != nil {
				return domain.QueryPlan{}, err
			}
			canonical = append(canonical, domain.FilterStage{
				Field: field,
				Class: class,
				Op:    canonicalOp(field),
				Value: value,
			})
		case domain.ClassIdentifier:
			plan.Identifier = &domain.IdentifierStage{
				Field:         field,
				Value:         value,
				FallbackFuzzy: true,
			}
		case domain.ClassSemantic:
			fuzzy = append(fuzzy, domain.FilterStage{
				Field: field,
				Class: class,
				Op:    domain.FilterContains,
				Value: value,
			})
		}
	}

	plan.Filters = append(canonical, fuzzy...)

	if intent.SemanticQuery != "" && intent.Kind == domain.KindLineItems {
		plan.Vector = &domain.VectorStage{
			Query:  intent.SemanticQuery,
			Scoped: plan.HasPreFilters(),
		}
	}

	plan.Limit = intent.Limit
	if plan.Limit <= 0 {
		plan.Limit = p.defaultLimit
	}
	if intent.Kind == domain.KindInvoiceMetadata && plan.Limit > MetadataResultCap {
		plan.Limit = MetadataResultCap
	}

	return plan, nil
}

// canonicalOp derives the predicate from the field's naming convention:
// min_*/…_start are lower bounds, max_*/…_end are upper bounds, everything
// else is an exact match.
func canonicalOp(field string) domain.FilterOp {
	switch field {
	case "min_page", "min_amount", "invoice_date_start":
		return domain.FilterGTE
	case "max_page", "max_amount", "invoice_date_end":
		return domain.FilterLTE
	default:
		return domain.FilterEq
	}
}

func validateCanonicalValue(field, value string) error {
	switch field {
	case "page_number", "min_page", "max_page":
		if _, err := strconv.Atoi(value); err != nil {
			return domain.WrapError(domain.ErrInvalidFilter, field, fmt.Errorf("not an integer: %q", value))
		}
	case "min_amount", "max_amount":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return domain.WrapError(domain.ErrInvalidFilter, field, fmt.Errorf("not a number: %q", value))
		}
	case "invoice_date_start", "invoice_date_end":
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return domain.WrapError(domain.ErrInvalidFilter, field, fmt.Errorf("not an ISO date: %q", value))
		}
	}
	return nil
}
