package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

type queryServiceStub struct {
	result *domain.RetrievalResult
	err    error
}

func (s *queryServiceStub) Ask(context.Context, string, bool) (*domain.RetrievalResult, error) {
	return s.result, s.err
}

func metricTotal(t *testing.T, m *QueryMetrics, name string) float64 {
	t.Helper()
	families, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				total += float64(h.GetSampleCount())
			}
		}
	}
	return total
}

func TestInstrumentedQueryServiceRecordsHit(t *testing.T) {
	m := NewQueryMetrics("mcp")
	svc := InstrumentQueryService(&queryServiceStub{result: &domain.RetrievalResult{
		Kind:         domain.KindLineItems,
		Items:        []domain.ScoredLineItem{{Description: "Bolts"}},
		FallbackUsed: true,
	}}, m, "mcp")

	if _, err := svc.Ask(context.Background(), "bolts", false); err != nil {
		t.Fatal(err)
	}

	if got := metricTotal(t, m, "inva_query_requests_total"); got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}
	if got := metricTotal(t, m, "inva_query_fuzzy_fallback_total"); got != 1 {
		t.Fatalf("fuzzy_fallback_total = %v, want 1", got)
	}
	if got := metricTotal(t, m, "inva_query_no_data_total"); got != 0 {
		t.Fatalf("no_data_total = %v, want 0", got)
	}
	if got := metricTotal(t, m, "inva_query_duration_seconds"); got != 1 {
		t.Fatalf("duration samples = %v, want 1", got)
	}
}

func TestInstrumentedQueryServiceRecordsNoData(t *testing.T) {
	m := NewQueryMetrics("mcp")
	svc := InstrumentQueryService(&queryServiceStub{result: &domain.RetrievalResult{
		Kind:   domain.KindLineItems,
		Answer: domain.NoDataFoundMessage,
	}}, m, "mcp")

	if _, err := svc.Ask(context.Background(), "unicorns", false); err != nil {
		t.Fatal(err)
	}

	if got := metricTotal(t, m, "inva_query_no_data_total"); got != 1 {
		t.Fatalf("no_data_total = %v, want 1", got)
	}
	if got := metricTotal(t, m, "inva_query_fuzzy_fallback_total"); got != 0 {
		t.Fatalf("fuzzy_fallback_total = %v, want 0", got)
	}
}

func TestInstrumentedQueryServicePassesErrorThrough(t *testing.T) {
	m := NewQueryMetrics("mcp")
	wantErr := errors.New("resolver down")
	svc := InstrumentQueryService(&queryServiceStub{err: wantErr}, m, "mcp")

	_, err := svc.Ask(context.Background(), "bolts", false)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	if got := metricTotal(t, m, "inva_query_requests_total"); got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}
	if got := metricTotal(t, m, "inva_query_duration_seconds"); got != 0 {
		t.Fatalf("failed queries must not record duration, got %v samples", got)
	}
}
