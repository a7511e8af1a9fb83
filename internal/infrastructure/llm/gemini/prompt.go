package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

func buildPagePrompt(req domain.PageRequest) string {
	priorState, _ := json.Marshal(req.PriorState)
	contextSoFar, _ := json.Marshal(req.ContextSoFar)

	return fmt.Sprintf(`You are an invoice table extractor working page by page.

Carry-over state from the previous page:
%s

Invoice context discovered so far (do not re-report known values):
%s

Rules:
- "table_status" in next_state must be exactly one of: "no_table", "table_open_with_headers", "table_open_headless".
- If the page starts with table rows and no header line, the previous page's columns apply: report those rows as "headless_rows", an array of cell arrays in visual order, and do NOT guess column names for them.
- If the page shows a new header row, report its column names in next_state.active_columns.
- Report "active_section_title" for the section heading in effect at the bottom of the page.
- Only report invoice_context fields you actually see on this page.

Return strict JSON with keys: invoice_context (object or null), line_items (array), headless_rows (array of string arrays), next_state (object with table_status, active_columns, active_section_title).
Line item keys: item_code, description, delivery_date, quantity, quantity_unit, unit_price, line_total, section.

Page %d text:
%s`, priorState, contextSoFar, req.PageNumber, req.PageText)
}

func buildDocumentPrompt(fullText string) string {
	return `You are an invoice extractor. The document fits on one page.

Return strict JSON with keys: invoice_context (object), line_items (array).
Invoice context keys: invoice_number, invoice_date (ISO yyyy-mm-dd), sender_name, receiver_name, currency, total_amount.
Line item keys: item_code, description, delivery_date, quantity, quantity_unit, unit_price, line_total, section.

Document:
` + fullText
}

func buildIntentPrompt(query string) string {
	return fmt.Sprintf(`You route a question about ingested invoices to one of two tools.

Tools:
- "line_items": search individual invoice line items.
- "invoice_metadata": list invoice documents and their metadata (status, dates, totals).

Allowed filter fields: %s.
Dates are ISO yyyy-mm-dd. Use min_/max_ and _start/_end fields for ranges.
Put free-text meaning that is not a filter into "semantic_query".

Return strict JSON with keys: kind ("line_items" or "invoice_metadata"), filters (object of field to string value), semantic_query (string), limit (number, 0 for default).

Question:
%s`, strings.Join(domain.QueryableFields(), ", "), query)
}

func buildAnswerPrompt(question string, items []domain.ScoredLineItem) string {
	var sb strings.Builder
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("[%d] %s", i+1, formatItemLine(item)))
		sb.WriteString("\n")
	}

	return fmt.Sprintf(`Answer the user's question using ONLY the retrieved line items below.
Never invent amounts, dates or items that are not listed.
If the items do not contain the answer, say so directly.

Question:
%s

Retrieved line items:
%s`, question, sb.String())
}

func formatItemLine(item domain.ScoredLineItem) string {
	parts := []string{"Item: " + item.Description}
	if item.ItemCode != "" {
		parts = append(parts, "Code: "+item.ItemCode)
	}
	if item.Quantity != nil {
		q := fmt.Sprintf("Qty: %g", *item.Quantity)
		if item.QuantityUnit != "" {
			q += " " + item.QuantityUnit
		}
		parts = append(parts, q)
	}
	if item.UnitPrice != nil {
		parts = append(parts, fmt.Sprintf("Unit price: %.2f", *item.UnitPrice))
	}
	if item.LineTotal != nil {
		parts = append(parts, fmt.Sprintf("Total: %.2f", *item.LineTotal))
	}
	if item.Section != "" {
		parts = append(parts, "Section: "+item.Section)
	}
	if item.InvoiceNumber != "" {
		parts = append(parts, "Invoice: "+item.InvoiceNumber)
	}
	if item.SenderName != "" {
		parts = append(parts, "From: "+item.SenderName)
	}
	if item.InvoiceDate != nil {
		parts = append(parts, "Date: "+item.InvoiceDate.Format("2006-01-02"))
	}
	return strings.Join(parts, " | ")
}
