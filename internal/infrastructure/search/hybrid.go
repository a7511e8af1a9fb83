package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
	"github.com/olegsavin/invoice-assistant/internal/infrastructure/vector/qdrant"
)

// InvoiceReader is the relational side of the hybrid store: invoice metadata
// search plus narrowing invoice-level plan stages to an ID set.
type InvoiceReader interface {
	SearchInvoices(ctx context.Context, plan domain.QueryPlan) ([]domain.Invoice, error)
	ResolveInvoiceIDs(ctx context.Context, plan domain.QueryPlan) ([]string, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Invoice, error)
}

// LineItemQuerier is the vector side: one request combining payload filter
// and similarity search.
type LineItemQuerier interface {
	Query(ctx context.Context, plan domain.QueryPlan, queryVector []float32, invoiceIDs []string) ([]qdrant.Hit, error)
}

// HybridStore executes query plans across both backends. Invoice-level
// stages are resolved to an ID set first, so the line-item collection is hit
// exactly once per plan execution.
type HybridStore struct {
	invoices InvoiceReader
	items    LineItemQuerier
	log      *slog.Logger
}

func NewHybridStore(invoices InvoiceReader, items LineItemQuerier, log *slog.Logger) *HybridStore {
	if log == nil {
		log = slog.Default()
	}
	return &HybridStore{invoices: invoices, items: items, log: log}
}

func (s *HybridStore) SearchInvoices(ctx context.Context, plan domain.QueryPlan) ([]domain.Invoice, error) {
	return s.invoices.SearchInvoices(ctx, plan)
}

func (s *HybridStore) SearchLineItems(ctx context.Context, plan domain.QueryPlan, queryVector []float32) ([]domain.ScoredLineItem, error) {
	ids, err := s.invoices.ResolveInvoiceIDs(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("resolve invoice filters: %w", err)
	}
	if ids != nil && len(ids) == 0 {
		// The invoice-level stages matched nothing; the payload filter
		// could only be empty too.
		return nil, nil
	}

	hits, err := s.items.Query(ctx, plan, queryVector, ids)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	return s.hydrate(ctx, hits)
}

// hydrate flattens each hit's payload with its parent invoice's business
// metadata, fetched in one batch.
func (s *HybridStore) hydrate(ctx context.Context, hits []qdrant.Hit) ([]domain.ScoredLineItem, error) {
	idSet := map[string]struct{}{}
	for _, h := range hits {
		if id := qdrant.PayloadString(h.Payload, "invoice_id"); id != "" {
			idSet[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	invoices, err := s.invoices.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate invoices: %w", err)
	}

	out := make([]domain.ScoredLineItem, 0, len(hits))
	for _, h := range hits {
		item := domain.ScoredLineItem{
			Score:        h.Score,
			InvoiceID:    qdrant.PayloadString(h.Payload, "invoice_id"),
			PageNumber:   qdrant.PayloadInt(h.Payload, "page_number"),
			Description:  qdrant.PayloadString(h.Payload, "description"),
			Section:      qdrant.PayloadString(h.Payload, "section"),
			ItemCode:     qdrant.PayloadString(h.Payload, "item_code"),
			DeliveryDate: qdrant.PayloadString(h.Payload, "delivery_date"),
			Quantity:     qdrant.PayloadFloat(h.Payload, "quantity"),
			QuantityUnit: qdrant.PayloadString(h.Payload, "quantity_unit"),
			UnitPrice:    qdrant.PayloadFloat(h.Payload, "unit_price"),
			LineTotal:    qdrant.PayloadFloat(h.Payload, "line_total"),
		}
		if inv, ok := invoices[item.InvoiceID]; ok {
			item.InvoiceNumber = inv.InvoiceNumber
			item.SenderName = inv.SenderName
			item.InvoiceDate = inv.InvoiceDate
		} else if item.InvoiceID != "" {
			s.log.Warn("line item references unknown invoice", "invoice_id", item.InvoiceID)
		}
		out = append(out, item)
	}
	return out, nil
}
