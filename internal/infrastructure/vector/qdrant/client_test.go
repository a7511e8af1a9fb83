package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

func item(id string) domain.StoredLineItem {
	return domain.StoredLineItem{
		ID:         id,
		InvoiceID:  "inv-1",
		PageNumber: 1,
		LineItem:   domain.LineItem{Description: "Bolts", Section: "Hardware"},
		SearchText: "Context: Acme (Hardware) | Item: Bolts",
		Vector:     []float32{0.1, 0.2},
	}
}

func TestIndexLineItemsEnsuresCollectionOnce(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/line_items":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/line_items/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "line_items", 2)
	if err := client.IndexLineItems(context.Background(), []domain.StoredLineItem{item("a")}); err != nil {
		t.Fatalf("first IndexLineItems() error = %v", err)
	}
	if err := client.IndexLineItems(context.Background(), []domain.StoredLineItem{item("b")}); err != nil {
		t.Fatalf("second IndexLineItems() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/line_items" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "line_items", 2)
	err := client.IndexLineItems(context.Background(), []domain.StoredLineItem{item("a")})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got == "" || !strings.Contains(got, "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}

func TestQueryUsesSearchWithVectorAndScrollWithout(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/collections/line_items/points/search":
			_, _ = w.Write([]byte(`{"result":[{"score":0.9,"payload":{"description":"Bolts"}}]}`))
		case "/collections/line_items/points/scroll":
			_, _ = w.Write([]byte(`{"result":{"points":[{"payload":{"description":"Nuts"}}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "line_items", 2)
	plan := domain.QueryPlan{Kind: domain.KindLineItems, Limit: 10}

	hits, err := client.Query(context.Background(), plan, []float32{0.1, 0.2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Score != 0.9 {
		t.Fatalf("search hits = %+v", hits)
	}

	hits, err = client.Query(context.Background(), plan, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || PayloadString(hits[0].Payload, "description") != "Nuts" {
		t.Fatalf("scroll hits = %+v", hits)
	}

	if len(paths) != 2 ||
		!strings.HasSuffix(paths[0], "/points/search") ||
		!strings.HasSuffix(paths[1], "/points/scroll") {
		t.Fatalf("paths = %v", paths)
	}
}

func TestBuildFilter(t *testing.T) {
	plan := domain.QueryPlan{
		Filters: []domain.FilterStage{
			{Field: "page_number", Class: domain.ClassCanonical, Op: domain.FilterEq, Value: "2"},
			{Field: "description", Class: domain.ClassSemantic, Op: domain.FilterContains, Value: "bolt"},
		},
	}
	filter := buildFilter(plan, []string{"inv-1", "inv-2"})
	if filter == nil {
		t.Fatal("filter must not be nil")
	}

	raw, err := json.Marshal(filter)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`"key":"invoice_id"`, `"any":["inv-1","inv-2"]`,
		`"key":"page_number"`, `"value":2`,
		`"key":"description"`, `"text":"bolt"`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("filter %s missing %s", raw, want)
		}
	}
}

func TestBuildFilterPageRange(t *testing.T) {
	plan := domain.QueryPlan{
		Filters: []domain.FilterStage{
			{Field: "min_page", Class: domain.ClassCanonical, Op: domain.FilterGTE, Value: "2"},
			{Field: "max_page", Class: domain.ClassCanonical, Op: domain.FilterLTE, Value: "5"},
		},
	}
	raw, err := json.Marshal(buildFilter(plan, nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"range":{"gte":2,"lte":5}`) {
		t.Fatalf("filter = %s", raw)
	}
}

func TestBuildFilterEmptyPlanIsNil(t *testing.T) {
	if got := buildFilter(domain.QueryPlan{}, nil); got != nil {
		t.Fatalf("filter = %v, want nil", got)
	}
}

func TestBuildFilterEmptyIDSetStillFilters(t *testing.T) {
	// A resolved-but-empty ID set must produce a filter that matches
	// nothing, not an unfiltered query.
	filter := buildFilter(domain.QueryPlan{}, []string{})
	if filter == nil {
		t.Fatal("empty ID set must still produce an invoice_id filter")
	}
}
