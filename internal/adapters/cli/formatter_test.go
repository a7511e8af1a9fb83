package cli

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

func TestWriteRetrievalResultEmpty(t *testing.T) {
	var sb strings.Builder
	WriteRetrievalResult(&sb, &domain.RetrievalResult{
		Kind:   domain.KindLineItems,
		Answer: domain.NoDataFoundMessage,
	})
	if got := strings.TrimSpace(sb.String()); got != domain.NoDataFoundMessage {
		t.Fatalf("output = %q", got)
	}
}

func TestWriteRetrievalResultLineItems(t *testing.T) {
	qty := 10.0
	var sb strings.Builder
	WriteRetrievalResult(&sb, &domain.RetrievalResult{
		Kind: domain.KindLineItems,
		Items: []domain.ScoredLineItem{
			{InvoiceNumber: "INV-1", PageNumber: 2, Description: "Bolts", Section: "Hardware", Quantity: &qty, Score: 0.91},
		},
		FallbackUsed: true,
	})
	out := sb.String()
	for _, want := range []string{"INV-1", "Bolts", "Hardware", "0.910", "closest matches"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUseTextOutput(t *testing.T) {
	if UseTextOutput(false, false) {
		t.Fatal("default must stay JSON")
	}
	if !UseTextOutput(true, false) {
		t.Fatal("-text must select the text renderer")
	}
	if !UseTextOutput(false, true) {
		t.Fatal("a generated answer must select the text renderer")
	}
}

func TestTruncateKeepsMultiByteRunesIntact(t *testing.T) {
	long := strings.Repeat("ü", 60)
	got := truncate(long, 48)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated string is not valid UTF-8: %q", got)
	}
	if want := strings.Repeat("ü", 47) + "…"; got != want {
		t.Fatalf("truncate = %q, want %q", got, want)
	}
	if short := truncate("Bolzen Ø8", 48); short != "Bolzen Ø8" {
		t.Fatalf("short strings must pass through, got %q", short)
	}
}

func TestWriteIngestReportSkipped(t *testing.T) {
	var sb strings.Builder
	WriteIngestReport(&sb, &domain.IngestReport{Filename: "a.pdf", InvoiceID: "inv-1", Skipped: true})
	if !strings.Contains(sb.String(), "skipped") {
		t.Fatalf("output = %q", sb.String())
	}
}
