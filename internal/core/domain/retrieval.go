package domain

import "time"

// NoDataFoundMessage is the fixed response returned when a valid plan yields
// zero records. The answer generator is never invoked in that case.
const NoDataFoundMessage = "No data found for this query."

// ScoredLineItem is one retrieval hit: the stored line item flattened with
// its parent invoice's business metadata and the similarity score.
type ScoredLineItem struct {
	Score float64 `json:"score"`

	InvoiceID  string `json:"invoice_id"`
	PageNumber int    `json:"page_number"`

	Description  string   `json:"description"`
	Section      string   `json:"section"`
	ItemCode     string   `json:"item_code,omitempty"`
	DeliveryDate string   `json:"delivery_date,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	QuantityUnit string   `json:"quantity_unit,omitempty"`
	UnitPrice    *float64 `json:"unit_price,omitempty"`
	LineTotal    *float64 `json:"line_total,omitempty"`

	InvoiceNumber string     `json:"invoice_number,omitempty"`
	SenderName    string     `json:"sender_name,omitempty"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
}

// RetrievalResult is the outcome of answering one query.
type RetrievalResult struct {
	Kind         ResultKind       `json:"kind"`
	Items        []ScoredLineItem `json:"items,omitempty"`
	Invoices     []Invoice        `json:"invoices,omitempty"`
	Answer       string           `json:"answer,omitempty"`
	FallbackUsed bool             `json:"fallback_used,omitempty"`
}

// Empty reports whether the retrieval produced no records at all.
func (r RetrievalResult) Empty() bool {
	return len(r.Items) == 0 && len(r.Invoices) == 0
}
