package domain

import (
	"fmt"
	"strings"
	"time"
)

type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
)

// Invoice is one record per ingested document.
type Invoice struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	FileHash   string           `json:"file_hash"`
	UploadedAt time.Time        `json:"uploaded_at"`
	Status     ProcessingStatus `json:"status"`
	Error      string           `json:"error,omitempty"`

	TotalPages        int     `json:"total_pages"`
	ProcessingSeconds float64 `json:"processing_seconds"`

	InvoiceNumber string     `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	SenderName    string     `json:"sender_name,omitempty"`
	ReceiverName  string     `json:"receiver_name,omitempty"`
	Currency      string     `json:"currency"`
	TotalAmount   *float64   `json:"total_amount,omitempty"`
}

// InvoiceContext is the global invoice metadata discovered incrementally
// while walking the pages. Values are kept as the raw strings the extraction
// collaborator reported; normalization happens at persistence time.
type InvoiceContext struct {
	InvoiceNumber string `json:"invoice_number,omitempty"`
	InvoiceDate   string `json:"invoice_date,omitempty"`
	SenderName    string `json:"sender_name,omitempty"`
	ReceiverName  string `json:"receiver_name,omitempty"`
	Currency      string `json:"currency,omitempty"`
	TotalAmount   string `json:"total_amount,omitempty"`
}

// ContextConflict records a later page reporting a different value for a
// field that was already populated. First-seen wins; the conflict is a
// data-quality warning, not an error.
type ContextConflict struct {
	Field   string
	Kept    string
	Dropped string
}

// MergeContext unions update into base with write-once-per-field semantics.
// A field already populated in base is never overwritten; a conflicting
// non-empty update value is reported back to the caller.
func MergeContext(base, update InvoiceContext) (InvoiceContext, []ContextConflict) {
	var conflicts []ContextConflict

	merge := func(field string, dst *string, src string) {
		if src == "" {
			return
		}
		if *dst == "" {
			*dst = src
			return
		}
		if *dst != src {
			conflicts = append(conflicts, ContextConflict{Field: field, Kept: *dst, Dropped: src})
		}
	}

	out := base
	merge("invoice_number", &out.InvoiceNumber, update.InvoiceNumber)
	merge("invoice_date", &out.InvoiceDate, update.InvoiceDate)
	merge("sender_name", &out.SenderName, update.SenderName)
	merge("receiver_name", &out.ReceiverName, update.ReceiverName)
	merge("currency", &out.Currency, update.Currency)
	merge("total_amount", &out.TotalAmount, update.TotalAmount)
	return out, conflicts
}

// LineItem is the atomic retrievable unit extracted from an invoice table.
type LineItem struct {
	ItemCode     string   `json:"item_code,omitempty"`
	Description  string   `json:"description"`
	DeliveryDate string   `json:"delivery_date,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	QuantityUnit string   `json:"quantity_unit,omitempty"`
	UnitPrice    *float64 `json:"unit_price,omitempty"`
	LineTotal    *float64 `json:"line_total,omitempty"`
	Section      string   `json:"section"`
}

// ExtractedPage groups the line items detected on one page.
type ExtractedPage struct {
	PageNumber int        `json:"page_number"`
	Items      []LineItem `json:"line_items"`
}

type ExtractionStrategy string

const (
	StrategySingleShot ExtractionStrategy = "single_shot"
	StrategySequential ExtractionStrategy = "sequential_chain"
)

// ExtractionResult is the finalized output of extracting one document.
type ExtractionResult struct {
	Context        InvoiceContext     `json:"invoice_context"`
	Pages          []ExtractedPage    `json:"pages"`
	PagesProcessed int                `json:"pages_processed"`
	FailedPages    []int              `json:"failed_pages,omitempty"`
	Strategy       ExtractionStrategy `json:"strategy"`
}

// FlattenItems returns all line items in page order, then in-page detection
// order.
func (r ExtractionResult) FlattenItems() []LineItem {
	var out []LineItem
	for _, page := range r.Pages {
		out = append(out, page.Items...)
	}
	return out
}

// BuildSearchText derives the deterministic embedding text for a line item:
// "Context: {sender} ({section}) | Item: {description} ({item_code})".
// The section part is omitted for placeholder sections and the context prefix
// is omitted entirely when the sender is unknown.
func BuildSearchText(senderName, section, description, itemCode string) string {
	var parts []string
	if senderName != "" {
		parts = append(parts, "Context: "+senderName)
	}
	switch strings.ToLower(section) {
	case "", "general", "default", "undefined":
	default:
		parts = append(parts, "("+section+")")
	}

	text := fmt.Sprintf("%s | Item: %s", strings.Join(parts, " "), description)
	if itemCode != "" {
		text += " (" + itemCode + ")"
	}
	return text
}

// IngestReport summarizes the outcome of ingesting one file.
type IngestReport struct {
	InvoiceID   string `json:"invoice_id"`
	Filename    string `json:"filename"`
	Skipped     bool   `json:"skipped,omitempty"`
	LineItems   int    `json:"line_items"`
	FailedPages []int  `json:"failed_pages,omitempty"`
}

// StoredLineItem is a line item enriched for persistence in the vector
// collection.
type StoredLineItem struct {
	ID         string
	InvoiceID  string
	PageNumber int
	LineItem
	SearchText string
	Vector     []float32
}
