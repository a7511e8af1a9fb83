package metrics

import (
	"context"
	"time"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
	"github.com/olegsavin/invoice-assistant/internal/core/ports"
)

// InstrumentedQueryService wraps a query service and records per-query
// metrics. Long-lived query surfaces wire it around the use case.
type InstrumentedQueryService struct {
	next    ports.QueryService
	metrics *QueryMetrics
	service string
}

func InstrumentQueryService(next ports.QueryService, m *QueryMetrics, service string) *InstrumentedQueryService {
	return &InstrumentedQueryService{next: next, metrics: m, service: service}
}

func (s *InstrumentedQueryService) Ask(ctx context.Context, query string, generateAnswer bool) (*domain.RetrievalResult, error) {
	start := time.Now()
	result, err := s.next.Ask(ctx, query, generateAnswer)

	kind, records, fallback := "unresolved", 0, false
	if result != nil {
		kind = string(result.Kind)
		records = len(result.Items) + len(result.Invoices)
		fallback = result.FallbackUsed
	}
	s.metrics.RecordQuery(s.service, kind, records, fallback, time.Since(start), err)
	return result, err
}
