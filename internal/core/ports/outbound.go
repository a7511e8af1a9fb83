package ports

import (
	"context"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// PageParser converts a source document into ordered page-level text.
type PageParser interface {
	ParsePages(ctx context.Context, path string) ([]domain.Page, error)
}

// PageExtractor is the LLM extraction collaborator. ExtractPage serves the
// sequential rolling-context path; ExtractDocument serves the single-shot
// path for one-page documents. Both fail closed with ErrSchemaValidation on
// structurally invalid output.
type PageExtractor interface {
	ExtractPage(ctx context.Context, req domain.PageRequest) (domain.PageResult, error)
	ExtractDocument(ctx context.Context, fullText string) (domain.SingleShotResult, error)
}

// Embedder builds vectors for line-item search text and query text.
type Embedder interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// IntentResolver classifies a natural-language query into a structured
// intent (tool selection plus filter values).
type IntentResolver interface {
	Resolve(ctx context.Context, query string) (domain.Intent, error)
}

// AnswerGenerator synthesizes a grounded answer strictly from the retrieved
// records it is handed.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, items []domain.ScoredLineItem) (string, error)
}

// InvoiceRepository persists and reads invoice records.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Invoice, error)
	GetByHash(ctx context.Context, fileHash string) (*domain.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus, errMessage string) error
	FinishProcessing(ctx context.Context, id string, totalPages int, seconds float64, invCtx domain.InvoiceContext) error
}

// LineItemIndex stores line items with their vectors.
type LineItemIndex interface {
	IndexLineItems(ctx context.Context, items []domain.StoredLineItem) error
}

// SearchStore executes a query plan against storage. Filter stages and the
// vector stage are composed in a single storage round trip, never as two
// queries merged client-side.
type SearchStore interface {
	SearchLineItems(ctx context.Context, plan domain.QueryPlan, queryVector []float32) ([]domain.ScoredLineItem, error)
	SearchInvoices(ctx context.Context, plan domain.QueryPlan) ([]domain.Invoice, error)
}

// IngestQueue publishes/consumes asynchronous ingestion requests.
type IngestQueue interface {
	PublishIngestRequested(ctx context.Context, path string) error
	SubscribeIngestRequested(ctx context.Context, handler func(context.Context, string) error) error
}
