package domain

// ResultKind selects what a query retrieves.
type ResultKind string

const (
	KindLineItems       ResultKind = "line_items"
	KindInvoiceMetadata ResultKind = "invoice_metadata"
)

// Intent is the structured reading of a natural-language query, as produced
// by the intent-resolution collaborator.
type Intent struct {
	Kind          ResultKind        `json:"kind"`
	Filters       map[string]string `json:"filters,omitempty"`
	SemanticQuery string            `json:"semantic_query,omitempty"`
	Limit         int               `json:"limit,omitempty"`
}

// FilterOp is the predicate of a filter stage.
type FilterOp string

const (
	FilterEq  FilterOp = "eq"
	FilterGTE FilterOp = "gte"
	FilterLTE FilterOp = "lte"
	// FilterContains is a case-insensitive substring match, used only for
	// semantic-class filter fields.
	FilterContains FilterOp = "contains"
)

// FilterStage is one pre-filter of a query plan. Values are carried as the
// normalized strings the planner validated; storage adapters convert them to
// native types per field.
type FilterStage struct {
	Field string     `json:"field"`
	Class FieldClass `json:"class"`
	Op    FilterOp   `json:"op"`
	Value string     `json:"value"`
}

// IdentifierStage matches an identifier field exactly. FallbackFuzzy is a
// plan-time annotation: if executing the plan yields zero results, the
// retrieval orchestrator re-executes once with Fuzzy set. The stage itself
// never retries eagerly.
type IdentifierStage struct {
	Field         string `json:"field"`
	Value         string `json:"value"`
	FallbackFuzzy bool   `json:"fallback_fuzzy"`
	Fuzzy         bool   `json:"fuzzy"`
}

// VectorStage is the similarity-search stage. Scoped reports whether the
// stage runs only within records surviving the preceding filter stages.
type VectorStage struct {
	Query  string `json:"query"`
	Scoped bool   `json:"scoped"`
}

// QueryPlan is an ordered stage list: filter stages (canonical first), an
// optional identifier stage, and an optional vector stage scoped to the
// filtered set. The vector stage never precedes filters: canonical filters
// are a hard pre-filter, never a post-filter.
type QueryPlan struct {
	Kind       ResultKind       `json:"kind"`
	Filters    []FilterStage    `json:"filters,omitempty"`
	Identifier *IdentifierStage `json:"identifier,omitempty"`
	Vector     *VectorStage     `json:"vector,omitempty"`
	Limit      int              `json:"limit"`
}

// HasCanonical reports whether the plan carries any canonical filter stage.
func (p QueryPlan) HasCanonical() bool {
	for _, f := range p.Filters {
		if f.Class == ClassCanonical {
			return true
		}
	}
	return false
}

// HasPreFilters reports whether any stage narrows the search space before
// the vector stage.
func (p QueryPlan) HasPreFilters() bool {
	return len(p.Filters) > 0 || p.Identifier != nil
}

// WithFuzzyIdentifier returns a copy of the plan whose identifier stage is
// switched to fuzzy matching. Used by the retrieval orchestrator for the
// single fallback re-execution.
func (p QueryPlan) WithFuzzyIdentifier() QueryPlan {
	if p.Identifier == nil {
		return p
	}
	id := *p.Identifier
	id.Fuzzy = true
	out := p
	out.Identifier = &id
	return out
}
