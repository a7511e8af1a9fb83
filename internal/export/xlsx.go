package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
	"github.com/olegsavin/invoice-assistant/internal/core/ports"
)

// Service produces XLSX bytes from retrieval results, so an answer can be
// handed off as a spreadsheet instead of JSON.
type Service struct {
	queries ports.QueryService
	logger  *slog.Logger
}

func NewService(queries ports.QueryService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{queries: queries, logger: logger}
}

// ExportQueryXLSX runs the query and renders the retrieved records as one
// workbook sheet. Line-item and invoice-metadata results get different
// column sets.
func (s *Service) ExportQueryXLSX(ctx context.Context, query string) ([]byte, error) {
	start := time.Now()

	result, err := s.queries.Ask(ctx, query, false)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	f := excelize.NewFile()
	var rows int
	switch result.Kind {
	case domain.KindInvoiceMetadata:
		rows, err = writeInvoiceSheet(f, result.Invoices)
	default:
		rows, err = writeLineItemSheet(f, result.Items)
	}
	if err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"kind", result.Kind,
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeLineItemSheet(f *excelize.File, items []domain.ScoredLineItem) (int, error) {
	const sheet = "Line Items"
	if err := renameDefaultSheet(f, sheet); err != nil {
		return 0, err
	}

	headers := []string{
		"Invoice Number", "Sender", "Invoice Date", "Page",
		"Item Code", "Description", "Section",
		"Quantity", "Unit", "Unit Price", "Line Total", "Score",
	}
	writeHeaderRow(f, sheet, headers)

	for i, item := range items {
		row := i + 2
		write := cellWriter(f, sheet, row)
		write(1, item.InvoiceNumber)
		write(2, item.SenderName)
		if item.InvoiceDate != nil {
			write(3, item.InvoiceDate.Format("2006-01-02"))
		}
		write(4, item.PageNumber)
		write(5, item.ItemCode)
		write(6, item.Description)
		write(7, item.Section)
		if item.Quantity != nil {
			write(8, *item.Quantity)
		}
		write(9, item.QuantityUnit)
		if item.UnitPrice != nil {
			write(10, *item.UnitPrice)
		}
		if item.LineTotal != nil {
			write(11, *item.LineTotal)
		}
		if item.Score > 0 {
			write(12, item.Score)
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 20)
	_ = f.SetColWidth(sheet, "F", "F", 40)
	return len(items), nil
}

func writeInvoiceSheet(f *excelize.File, invoices []domain.Invoice) (int, error) {
	const sheet = "Invoices"
	if err := renameDefaultSheet(f, sheet); err != nil {
		return 0, err
	}

	headers := []string{
		"Invoice Number", "Filename", "Sender", "Receiver",
		"Invoice Date", "Currency", "Total Amount",
		"Status", "Pages", "Uploaded At",
	}
	writeHeaderRow(f, sheet, headers)

	for i, inv := range invoices {
		row := i + 2
		write := cellWriter(f, sheet, row)
		write(1, inv.InvoiceNumber)
		write(2, inv.Filename)
		write(3, inv.SenderName)
		write(4, inv.ReceiverName)
		if inv.InvoiceDate != nil {
			write(5, inv.InvoiceDate.Format("2006-01-02"))
		}
		write(6, inv.Currency)
		if inv.TotalAmount != nil {
			write(7, *inv.TotalAmount)
		}
		write(8, string(inv.Status))
		write(9, inv.TotalPages)
		write(10, inv.UploadedAt.Format(time.RFC3339))
	}

	_ = f.SetColWidth(sheet, "A", "D", 24)
	return len(invoices), nil
}

func renameDefaultSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func cellWriter(f *excelize.File, sheet string, row int) func(col int, v any) {
	return func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
