package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// Extractor implements page-level and whole-document extraction. Model
// output is validated fail closed: a structurally invalid payload fails the
// page instead of poisoning the rolling state.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

type wireLineItem struct {
	ItemCode     string   `json:"item_code"`
	Description  string   `json:"description"`
	DeliveryDate string   `json:"delivery_date"`
	Quantity     *float64 `json:"quantity"`
	QuantityUnit string   `json:"quantity_unit"`
	UnitPrice    *float64 `json:"unit_price"`
	LineTotal    *float64 `json:"line_total"`
	Section      string   `json:"section"`
}

type wireState struct {
	TableStatus        string   `json:"table_status"`
	ActiveColumns      []string `json:"active_columns"`
	ActiveSectionTitle string   `json:"active_section_title"`
}

type pageWire struct {
	InvoiceContext *domain.InvoiceContext `json:"invoice_context"`
	LineItems      []wireLineItem         `json:"line_items"`
	HeadlessRows   [][]string             `json:"headless_rows"`
	NextState      *wireState             `json:"next_state"`
}

type documentWire struct {
	InvoiceContext domain.InvoiceContext `json:"invoice_context"`
	LineItems      []wireLineItem        `json:"line_items"`
}

func (e *Extractor) ExtractPage(ctx context.Context, req domain.PageRequest) (domain.PageResult, error) {
	raw, err := e.client.generateJSON(ctx, "extract_page", buildPagePrompt(req))
	if err != nil {
		return domain.PageResult{}, err
	}
	return decodePageResult(raw)
}

func (e *Extractor) ExtractDocument(ctx context.Context, fullText string) (domain.SingleShotResult, error) {
	raw, err := e.client.generateJSON(ctx, "extract_document", buildDocumentPrompt(fullText))
	if err != nil {
		return domain.SingleShotResult{}, err
	}
	return decodeDocumentResult(raw)
}

func decodePageResult(raw string) (domain.PageResult, error) {
	var wire pageWire
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &wire); err != nil {
		return domain.PageResult{}, domain.WrapError(domain.ErrSchemaValidation, "extract_page",
			fmt.Errorf("parse page payload: %w", err))
	}

	if wire.NextState == nil {
		return domain.PageResult{}, domain.WrapError(domain.ErrSchemaValidation, "extract_page",
			fmt.Errorf("missing next_state"))
	}
	status := domain.TableStatus(wire.NextState.TableStatus)
	if !status.Valid() {
		return domain.PageResult{}, domain.WrapError(domain.ErrSchemaValidation, "extract_page",
			fmt.Errorf("invalid table_status %q", wire.NextState.TableStatus))
	}

	items, err := convertItems(wire.LineItems, "extract_page")
	if err != nil {
		return domain.PageResult{}, err
	}

	rows := make([]domain.HeadlessRow, 0, len(wire.HeadlessRows))
	for _, r := range wire.HeadlessRows {
		rows = append(rows, domain.HeadlessRow(r))
	}

	return domain.PageResult{
		Items:        items,
		HeadlessRows: rows,
		Context:      wire.InvoiceContext,
		NextState: domain.PageState{
			TableStatus:        status,
			ActiveColumns:      wire.NextState.ActiveColumns,
			ActiveSectionTitle: wire.NextState.ActiveSectionTitle,
		},
	}, nil
}

func decodeDocumentResult(raw string) (domain.SingleShotResult, error) {
	var wire documentWire
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &wire); err != nil {
		return domain.SingleShotResult{}, domain.WrapError(domain.ErrSchemaValidation, "extract_document",
			fmt.Errorf("parse document payload: %w", err))
	}
	items, err := convertItems(wire.LineItems, "extract_document")
	if err != nil {
		return domain.SingleShotResult{}, err
	}
	return domain.SingleShotResult{Items: items, Context: wire.InvoiceContext}, nil
}

func convertItems(wire []wireLineItem, operation string) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(wire))
	for i, w := range wire {
		if w.Description == "" {
			return nil, domain.WrapError(domain.ErrSchemaValidation, operation,
				fmt.Errorf("line item %d has no description", i))
		}
		items = append(items, domain.LineItem{
			ItemCode:     w.ItemCode,
			Description:  w.Description,
			DeliveryDate: w.DeliveryDate,
			Quantity:     w.Quantity,
			QuantityUnit: w.QuantityUnit,
			UnitPrice:    w.UnitPrice,
			LineTotal:    w.LineTotal,
			Section:      w.Section,
		})
	}
	return items, nil
}
