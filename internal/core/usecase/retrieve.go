package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
	"github.com/olegsavin/invoice-assistant/internal/core/ports"
)

// RetrieveUseCase orchestrates question answering: intent resolution, query
// planning, plan execution against the hybrid store, the single fuzzy
// identifier fallback and, when asked for, grounded answer generation.
type RetrieveUseCase struct {
	intents   ports.IntentResolver
	planner   *QueryPlanner
	embedder  ports.Embedder
	store     ports.SearchStore
	generator ports.AnswerGenerator
	log       *slog.Logger
}

func NewRetrieveUseCase(
	intents ports.IntentResolver,
	planner *QueryPlanner,
	embedder ports.Embedder,
	store ports.SearchStore,
	generator ports.AnswerGenerator,
	log *slog.Logger,
) *RetrieveUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &RetrieveUseCase{
		intents:   intents,
		planner:   planner,
		embedder:  embedder,
		store:     store,
		generator: generator,
		log:       log,
	}
}

func (uc *RetrieveUseCase) Ask(ctx context.Context, query string, generateAnswer bool) (*domain.RetrievalResult, error) {
	intent, err := uc.intents.Resolve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("resolve intent: %w", err)
	}

	plan, err := uc.planner.Plan(intent)
	if err != nil {
		return nil, err
	}

	result, err := uc.execute(ctx, plan)
	if err != nil {
		return nil, err
	}

	// Exactly one fuzzy re-execution when the exact identifier match came
	// back empty. A fuzzy plan never falls back again.
	if result.Empty() && plan.Identifier != nil && plan.Identifier.FallbackFuzzy && !plan.Identifier.Fuzzy {
		uc.log.Info("exact identifier match empty, retrying fuzzy",
			"field", plan.Identifier.Field, "value", plan.Identifier.Value)
		result, err = uc.execute(ctx, plan.WithFuzzyIdentifier())
		if err != nil {
			return nil, err
		}
		result.FallbackUsed = true
	}

	if result.Empty() {
		// Grounding: no records means the fixed message, never a
		// generated answer.
		result.Answer = domain.NoDataFoundMessage
		return result, nil
	}

	if generateAnswer && result.Kind == domain.KindLineItems {
		answer, err := uc.generator.GenerateAnswer(ctx, query, result.Items)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		result.Answer = answer
	}

	return result, nil
}

func (uc *RetrieveUseCase) execute(ctx context.Context, plan domain.QueryPlan) (*domain.RetrievalResult, error) {
	if plan.Kind == domain.KindInvoiceMetadata {
		invoices, err := uc.store.SearchInvoices(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("search invoices: %w", err)
		}
		return &domain.RetrievalResult{Kind: plan.Kind, Invoices: invoices}, nil
	}

	var queryVector []float32
	if plan.Vector != nil {
		vec, err := uc.embedder.EmbedQuery(ctx, plan.Vector.Query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		queryVector = vec
	}

	items, err := uc.store.SearchLineItems(ctx, plan, queryVector)
	if err != nil {
		return nil, fmt.Errorf("search line items: %w", err)
	}
	return &domain.RetrievalResult{Kind: plan.Kind, Items: items}, nil
}
