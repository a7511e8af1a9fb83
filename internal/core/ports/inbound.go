package ports

import (
	"context"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// InvoiceIngestor is the inbound contract for ingesting one invoice file.
type InvoiceIngestor interface {
	Ingest(ctx context.Context, path string) (*domain.IngestReport, error)
}

// InvoiceExtractor is the inbound contract for turning ordered page texts
// into line items plus a finalized invoice context.
type InvoiceExtractor interface {
	Extract(ctx context.Context, pages []domain.Page) (domain.ExtractionResult, error)
}

// QueryService is the inbound contract for answering natural-language
// questions against ingested invoices.
type QueryService interface {
	Ask(ctx context.Context, query string, generateAnswer bool) (*domain.RetrievalResult, error)
}
