package pdftext

import "testing"

func TestCleanText(t *testing.T) {
	in := "Invoice\r\nNo. 42\n\n\n\n\nTotal: 100.00\n"
	want := "Invoice\nNo. 42\n\nTotal: 100.00"
	if got := cleanText(in); got != want {
		t.Fatalf("cleanText = %q, want %q", got, want)
	}
}
