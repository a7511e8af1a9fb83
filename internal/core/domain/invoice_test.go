package domain

import "testing"

func TestBuildSearchText(t *testing.T) {
	tests := []struct {
		name        string
		sender      string
		section     string
		description string
		itemCode    string
		want        string
	}{
		{
			name:        "full",
			sender:      "Acme GmbH",
			section:     "Hardware",
			description: "Hex bolts M8",
			itemCode:    "HB-08",
			want:        "Context: Acme GmbH (Hardware) | Item: Hex bolts M8 (HB-08)",
		},
		{
			name:        "placeholder section omitted",
			sender:      "Acme GmbH",
			section:     "General",
			description: "Hex bolts M8",
			want:        "Context: Acme GmbH | Item: Hex bolts M8",
		},
		{
			name:        "placeholder check is case-insensitive",
			sender:      "Acme GmbH",
			section:     "DEFAULT",
			description: "Hex bolts M8",
			want:        "Context: Acme GmbH | Item: Hex bolts M8",
		},
		{
			name:        "undefined section omitted",
			sender:      "Acme GmbH",
			section:     "undefined",
			description: "Hex bolts M8",
			want:        "Context: Acme GmbH | Item: Hex bolts M8",
		},
		{
			name:        "no sender drops context prefix",
			section:     "Hardware",
			description: "Hex bolts M8",
			want:        "(Hardware) | Item: Hex bolts M8",
		},
		{
			name:        "bare item",
			description: "Hex bolts M8",
			want:        " | Item: Hex bolts M8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSearchText(tt.sender, tt.section, tt.description, tt.itemCode)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeContextWriteOnce(t *testing.T) {
	base := InvoiceContext{InvoiceNumber: "INV-1", SenderName: "Acme"}
	update := InvoiceContext{InvoiceNumber: "INV-2", Currency: "EUR"}

	merged, conflicts := MergeContext(base, update)
	if merged.InvoiceNumber != "INV-1" {
		t.Errorf("invoice number overwritten: %q", merged.InvoiceNumber)
	}
	if merged.Currency != "EUR" {
		t.Errorf("empty field not filled: %q", merged.Currency)
	}
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %+v", conflicts)
	}
	if conflicts[0].Field != "invoice_number" || conflicts[0].Kept != "INV-1" || conflicts[0].Dropped != "INV-2" {
		t.Errorf("conflict = %+v", conflicts[0])
	}
}

func TestMergeContextIdenticalValueNoConflict(t *testing.T) {
	base := InvoiceContext{SenderName: "Acme"}
	_, conflicts := MergeContext(base, InvoiceContext{SenderName: "Acme"})
	if len(conflicts) != 0 {
		t.Fatalf("re-reporting the same value is not a conflict, got %+v", conflicts)
	}
}

func TestFlattenItemsPreservesOrder(t *testing.T) {
	r := ExtractionResult{Pages: []ExtractedPage{
		{PageNumber: 1, Items: []LineItem{{Description: "a"}, {Description: "b"}}},
		{PageNumber: 2, Items: []LineItem{{Description: "c"}}},
	}}
	flat := r.FlattenItems()
	if len(flat) != 3 || flat[0].Description != "a" || flat[2].Description != "c" {
		t.Fatalf("flatten = %+v", flat)
	}
}
