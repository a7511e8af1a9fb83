package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

type queryServiceFake struct {
	result *domain.RetrievalResult
}

func (f *queryServiceFake) Ask(context.Context, string, bool) (*domain.RetrievalResult, error) {
	return f.result, nil
}

func TestExportQueryXLSXLineItems(t *testing.T) {
	qty := 10.0
	svc := NewService(&queryServiceFake{result: &domain.RetrievalResult{
		Kind: domain.KindLineItems,
		Items: []domain.ScoredLineItem{
			{Description: "Bolts", Section: "Hardware", Quantity: &qty, InvoiceNumber: "INV-1"},
		},
	}}, nil)

	raw, err := svc.ExportQueryXLSX(context.Background(), "bolts")
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Line Items")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[1][5] != "Bolts" {
		t.Fatalf("description cell = %q", rows[1][5])
	}
}

func TestExportQueryXLSXInvoices(t *testing.T) {
	svc := NewService(&queryServiceFake{result: &domain.RetrievalResult{
		Kind: domain.KindInvoiceMetadata,
		Invoices: []domain.Invoice{
			{InvoiceNumber: "INV-1", Filename: "march.pdf", Status: domain.StatusCompleted},
		},
	}}, nil)

	raw, err := svc.ExportQueryXLSX(context.Background(), "all invoices")
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Invoices")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][1] != "march.pdf" {
		t.Fatalf("rows = %v", rows)
	}
}
