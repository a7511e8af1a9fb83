package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// WriteJSON renders any payload as indented JSON, the default output mode.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteIngestReport prints a human-readable summary of one ingested file.
func WriteIngestReport(w io.Writer, report *domain.IngestReport) {
	if report.Skipped {
		fmt.Fprintf(w, "%s: already ingested (invoice %s), skipped\n", report.Filename, report.InvoiceID)
		return
	}
	fmt.Fprintf(w, "%s: invoice %s, %d line items", report.Filename, report.InvoiceID, report.LineItems)
	if len(report.FailedPages) > 0 {
		fmt.Fprintf(w, ", failed pages %v", report.FailedPages)
	}
	fmt.Fprintln(w)
}

// WriteRetrievalResult prints hits as an aligned table, with the generated
// answer (when present) underneath.
func WriteRetrievalResult(w io.Writer, result *domain.RetrievalResult) {
	if result.Empty() {
		fmt.Fprintln(w, result.Answer)
		return
	}

	switch result.Kind {
	case domain.KindInvoiceMetadata:
		writeInvoiceTable(w, result.Invoices)
	default:
		writeLineItemTable(w, result.Items)
	}

	if result.FallbackUsed {
		fmt.Fprintln(w, "\n(exact invoice number not found, showing closest matches)")
	}
	if result.Answer != "" {
		fmt.Fprintf(w, "\n%s\n", result.Answer)
	}
}

func writeLineItemTable(w io.Writer, items []domain.ScoredLineItem) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INVOICE\tPAGE\tDESCRIPTION\tSECTION\tQTY\tUNIT PRICE\tTOTAL\tSCORE")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(item.InvoiceNumber),
			item.PageNumber,
			truncate(item.Description, 48),
			orDash(item.Section),
			floatCell(item.Quantity, "%g"),
			floatCell(item.UnitPrice, "%.2f"),
			floatCell(item.LineTotal, "%.2f"),
			scoreCell(item.Score),
		)
	}
	_ = tw.Flush()
}

func writeInvoiceTable(w io.Writer, invoices []domain.Invoice) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INVOICE\tFILE\tSENDER\tDATE\tTOTAL\tSTATUS\tPAGES")
	for _, inv := range invoices {
		date := "-"
		if inv.InvoiceDate != nil {
			date = inv.InvoiceDate.Format("2006-01-02")
		}
		total := "-"
		if inv.TotalAmount != nil {
			total = fmt.Sprintf("%.2f %s", *inv.TotalAmount, inv.Currency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			orDash(inv.InvoiceNumber),
			inv.Filename,
			orDash(inv.SenderName),
			date,
			total,
			inv.Status,
			inv.TotalPages,
		)
	}
	_ = tw.Flush()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func floatCell(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func scoreCell(score float64) string {
	if score == 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", score)
}

// UseTextOutput reports whether results should render as text. A generated
// answer is prose, so requesting one implies the text renderer.
func UseTextOutput(textFlag, generateAnswer bool) bool {
	return textFlag || generateAnswer
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
