package gemini

import (
	"testing"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

func TestDecodePageResult(t *testing.T) {
	raw := `{
		"invoice_context": {"sender_name": "Acme GmbH"},
		"line_items": [{"description": "Bolts", "quantity": 10, "section": "Hardware"}],
		"headless_rows": [["Nuts", "5", "1.20"]],
		"next_state": {
			"table_status": "table_open_headless",
			"active_columns": ["Description", "Qty", "Price"],
			"active_section_title": "Hardware"
		}
	}`

	result, err := decodePageResult(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Items) != 1 || result.Items[0].Description != "Bolts" {
		t.Fatalf("items = %+v", result.Items)
	}
	if len(result.HeadlessRows) != 1 || len(result.HeadlessRows[0]) != 3 {
		t.Fatalf("headless rows = %+v", result.HeadlessRows)
	}
	if result.Context == nil || result.Context.SenderName != "Acme GmbH" {
		t.Fatalf("context = %+v", result.Context)
	}
	if result.NextState.TableStatus != domain.TableOpenHeadless {
		t.Fatalf("next state = %+v", result.NextState)
	}
}

func TestDecodePageResultInvalidTableStatus(t *testing.T) {
	raw := `{"line_items": [], "next_state": {"table_status": "half_open"}}`
	_, err := decodePageResult(raw)
	if !domain.IsKind(err, domain.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
}

func TestDecodePageResultMissingNextState(t *testing.T) {
	_, err := decodePageResult(`{"line_items": []}`)
	if !domain.IsKind(err, domain.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
}

func TestDecodePageResultDescriptionRequired(t *testing.T) {
	raw := `{
		"line_items": [{"quantity": 3}],
		"next_state": {"table_status": "no_table"}
	}`
	_, err := decodePageResult(raw)
	if !domain.IsKind(err, domain.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
}

func TestDecodePageResultStripsProseAroundJSON(t *testing.T) {
	raw := "Here is the extraction:\n```json\n" +
		`{"line_items": [], "next_state": {"table_status": "no_table"}}` +
		"\n```"
	result, err := decodePageResult(raw)
	if err != nil {
		t.Fatal(err)
	}
	if result.NextState.TableStatus != domain.TableNone {
		t.Fatalf("next state = %+v", result.NextState)
	}
}

func TestDecodeDocumentResult(t *testing.T) {
	raw := `{
		"invoice_context": {"invoice_number": "INV-1", "currency": "EUR"},
		"line_items": [{"description": "Consulting", "line_total": 1200}]
	}`
	result, err := decodeDocumentResult(raw)
	if err != nil {
		t.Fatal(err)
	}
	if result.Context.InvoiceNumber != "INV-1" {
		t.Fatalf("context = %+v", result.Context)
	}
	if len(result.Items) != 1 || result.Items[0].LineTotal == nil || *result.Items[0].LineTotal != 1200 {
		t.Fatalf("items = %+v", result.Items)
	}
}
