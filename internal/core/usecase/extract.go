package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
	"github.com/olegsavin/invoice-assistant/internal/core/ports"
)

// ExtractInvoiceUseCase drives per-page extraction and threads the rolling
// PageState from one page into the next. Page order is strict: page i+1 is
// never started before page i produced its state, because header inheritance
// and schema-drift detection depend on it.
type ExtractInvoiceUseCase struct {
	extractor ports.PageExtractor
	log       *slog.Logger
}

func NewExtractInvoiceUseCase(extractor ports.PageExtractor, log *slog.Logger) *ExtractInvoiceUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &ExtractInvoiceUseCase{extractor: extractor, log: log}
}

func (uc *ExtractInvoiceUseCase) Extract(ctx context.Context, pages []domain.Page) (domain.ExtractionResult, error) {
	if len(pages) == 0 {
		return domain.ExtractionResult{}, domain.ErrEmptyDocument
	}
	if len(pages) == 1 {
		return uc.extractSingleShot(ctx, pages[0])
	}
	return uc.extractSequential(ctx, pages)
}

// extractSingleShot is the latency-optimized path for one-page documents:
// one call, no state threading.
func (uc *ExtractInvoiceUseCase) extractSingleShot(ctx context.Context, page domain.Page) (domain.ExtractionResult, error) {
	result, err := uc.extractor.ExtractDocument(ctx, page.Text)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("single-shot extraction: %w", err)
	}

	items := fillSections(result.Items, domain.DefaultSection)
	return domain.ExtractionResult{
		Context:        result.Context,
		Pages:          []domain.ExtractedPage{{PageNumber: 1, Items: items}},
		PagesProcessed: 1,
		Strategy:       domain.StrategySingleShot,
	}, nil
}

// extractSequential is the rolling-context fold over 2+ pages. The state is
// an immutable value carried forward; a failed page keeps the last known
// good state so the remaining pages still inherit the right columns.
func (uc *ExtractInvoiceUseCase) extractSequential(ctx context.Context, pages []domain.Page) (domain.ExtractionResult, error) {
	state := domain.InitialPageState()
	aggregated := domain.InvoiceContext{}

	var (
		extracted   []domain.ExtractedPage
		failedPages []int
	)

	for i, page := range pages {
		// Cancellation is checked at page boundaries only, so an abort
		// never leaves a page half-applied.
		if err := ctx.Err(); err != nil {
			return domain.ExtractionResult{}, err
		}

		pageNum := i + 1
		result, err := uc.extractor.ExtractPage(ctx, domain.PageRequest{
			PageNumber:   pageNum,
			PageText:     page.Text,
			PriorState:   state,
			ContextSoFar: aggregated,
		})
		if err != nil {
			uc.log.Warn("page extraction failed, continuing with last known good state",
				"page", pageNum, "error", err)
			failedPages = append(failedPages, pageNum)
			continue
		}

		items := result.Items
		for _, row := range result.HeadlessRows {
			item, ok := bindHeadlessRow(state.ActiveColumns, row)
			if !ok {
				uc.log.Warn("headless row dropped: no description column bound",
					"page", pageNum, "columns", state.ActiveColumns)
				continue
			}
			items = append(items, item)
		}
		items = fillSections(items, state.ActiveSectionTitle)

		extracted = append(extracted, domain.ExtractedPage{PageNumber: pageNum, Items: items})

		if result.Context != nil {
			var conflicts []domain.ContextConflict
			aggregated, conflicts = domain.MergeContext(aggregated, *result.Context)
			for _, c := range conflicts {
				uc.log.Warn("invoice context conflict, first-seen value kept",
					"page", pageNum, "field", c.Field, "kept", c.Kept, "dropped", c.Dropped)
			}
		}

		state = nextPageState(state, result.NextState)
	}

	if len(extracted) == 0 {
		return domain.ExtractionResult{}, fmt.Errorf("all %d pages failed: %w", len(pages), domain.ErrEmptyDocument)
	}

	return domain.ExtractionResult{
		Context:        aggregated,
		Pages:          extracted,
		PagesProcessed: len(pages),
		FailedPages:    failedPages,
		Strategy:       domain.StrategySequential,
	}, nil
}

// nextPageState normalizes the state returned for page i into the state
// supplied to page i+1. A headless continuation inherits the prior columns;
// a recognizably new header set replaces them (schema drift); a closed table
// drops them.
func nextPageState(prior, reported domain.PageState) domain.PageState {
	next := reported

	switch next.TableStatus {
	case domain.TableNone:
		next.ActiveColumns = nil
	case domain.TableOpenHeadless:
		if len(next.ActiveColumns) == 0 {
			next.ActiveColumns = prior.ActiveColumns
		}
	case domain.TableOpenWithHeaders:
		if len(next.ActiveColumns) == 0 {
			// An open table with no columns reported is a continuation,
			// not a reset.
			next.ActiveColumns = prior.ActiveColumns
		}
	default:
		// Unknown status from the collaborator: keep the prior state
		// rather than poisoning the chain.
		return prior
	}

	if next.ActiveSectionTitle == "" {
		next.ActiveSectionTitle = prior.ActiveSectionTitle
	}
	return next
}

// bindHeadlessRow labels row cells positionally with the inherited column
// names: the first inherited column maps to the first cell, and so on. The
// row is rejected when no description could be bound.
func bindHeadlessRow(columns []string, row domain.HeadlessRow) (domain.LineItem, bool) {
	var item domain.LineItem

	for i, col := range columns {
		if i >= len(row) {
			break
		}
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}

		switch normalizeColumn(col) {
		case colDescription:
			item.Description = cell
		case colQuantity:
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				item.Quantity = &v
			}
		case colUnit:
			item.QuantityUnit = cell
		case colUnitPrice:
			if v, err := parseAmount(cell); err == nil {
				item.UnitPrice = &v
			}
		case colLineTotal:
			if v, err := parseAmount(cell); err == nil {
				item.LineTotal = &v
			}
		case colItemCode:
			item.ItemCode = cell
		case colDeliveryDate:
			item.DeliveryDate = cell
		case colSection:
			item.Section = cell
		}
	}

	if item.Description == "" {
		return domain.LineItem{}, false
	}
	return item, true
}

type columnRole int

const (
	colUnknown columnRole = iota
	colDescription
	colQuantity
	colUnit
	colUnitPrice
	colLineTotal
	colItemCode
	colDeliveryDate
	colSection
)

func normalizeColumn(name string) columnRole {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "description" || n == "item" || n == "desc" || n == "article" ||
		strings.Contains(n, "description"):
		return colDescription
	case n == "qty" || n == "quantity" || strings.Contains(n, "quantity"):
		return colQuantity
	case n == "unit" || n == "uom":
		return colUnit
	case n == "price" || n == "rate" || n == "unit price" || strings.Contains(n, "unit price") ||
		strings.Contains(n, "price per"):
		return colUnitPrice
	case n == "amount" || n == "total" || n == "line total" || strings.Contains(n, "total") ||
		strings.Contains(n, "amount"):
		return colLineTotal
	case n == "sku" || n == "code" || n == "item code" || n == "item no" || n == "pos" ||
		strings.Contains(n, "code"):
		return colItemCode
	case strings.Contains(n, "delivery") || n == "date":
		return colDeliveryDate
	case n == "section" || n == "category":
		return colSection
	default:
		return colUnknown
	}
}

// parseAmount tolerates currency symbols and thousands separators the OCR
// layer leaves in numeric cells.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric content in %q", raw)
	}
	return strconv.ParseFloat(cleaned, 64)
}

func fillSections(items []domain.LineItem, section string) []domain.LineItem {
	if section == "" {
		section = domain.DefaultSection
	}
	for i := range items {
		if items[i].Section == "" {
			items[i].Section = section
		}
	}
	return items
}
