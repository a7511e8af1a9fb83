package domain

// PageRequest is the input of the sequential extraction contract: one page's
// text plus the rolling state produced by the previous page and the invoice
// context accumulated so far.
type PageRequest struct {
	PageNumber   int
	PageText     string
	PriorState   PageState
	ContextSoFar InvoiceContext
}

// HeadlessRow is a table-continuation row reported without a visible header
// line. Cells are in visual order; the orchestrator binds them positionally
// against the inherited active columns.
type HeadlessRow []string

// PageResult is the output of the sequential extraction contract.
type PageResult struct {
	Items        []LineItem
	HeadlessRows []HeadlessRow
	Context      *InvoiceContext
	NextState    PageState
}

// SingleShotResult is the output of the one-call extraction path used for
// single-page documents.
type SingleShotResult struct {
	Items   []LineItem
	Context InvoiceContext
}
