package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
	"github.com/olegsavin/invoice-assistant/internal/core/ports"
)

// IngestInvoiceUseCase runs the full ingestion pipeline for one file:
// dedup check, parsing, extraction, search-text derivation, embedding and
// persistence. Distinct files are independent; callers may ingest several in
// parallel.
type IngestInvoiceUseCase struct {
	repo      ports.InvoiceRepository
	index     ports.LineItemIndex
	parser    ports.PageParser
	extractor ports.InvoiceExtractor
	embedder  ports.Embedder
	log       *slog.Logger

	embedBatchSize int
}

func NewIngestInvoiceUseCase(
	repo ports.InvoiceRepository,
	index ports.LineItemIndex,
	parser ports.PageParser,
	extractor ports.InvoiceExtractor,
	embedder ports.Embedder,
	embedBatchSize int,
	log *slog.Logger,
) *IngestInvoiceUseCase {
	if embedBatchSize <= 0 {
		embedBatchSize = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &IngestInvoiceUseCase{
		repo:           repo,
		index:          index,
		parser:         parser,
		extractor:      extractor,
		embedder:       embedder,
		embedBatchSize: embedBatchSize,
		log:            log,
	}
}

func (uc *IngestInvoiceUseCase) Ingest(ctx context.Context, path string) (*domain.IngestReport, error) {
	start := time.Now()
	filename := filepath.Base(path)

	fileHash, err := hashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash file: %w", err)
	}

	existing, err := uc.repo.GetByHash(ctx, fileHash)
	if err != nil && !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		uc.log.Info("duplicate document, skipping", "filename", filename, "invoice_id", existing.ID)
		return &domain.IngestReport{InvoiceID: existing.ID, Filename: filename, Skipped: true}, nil
	}

	pages, err := uc.parser.ParsePages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("parse pages: %w", err)
	}

	inv := &domain.Invoice{
		ID:         uuid.NewString(),
		Filename:   filename,
		FileHash:   fileHash,
		UploadedAt: time.Now().UTC(),
		Status:     domain.StatusProcessing,
		Currency:   "USD",
	}
	if err := uc.repo.Create(ctx, inv); err != nil {
		// Insert race with a parallel ingest of the same file. The winner's
		// record stands; this ingest becomes the same no-op skip as the hash
		// lookup path.
		if domain.IsKind(err, domain.ErrDuplicateDocument) {
			winner, lookupErr := uc.repo.GetByHash(ctx, fileHash)
			if lookupErr != nil {
				return nil, fmt.Errorf("dedup lookup after insert race: %w", lookupErr)
			}
			uc.log.Info("duplicate document, skipping", "filename", filename, "invoice_id", winner.ID)
			return &domain.IngestReport{InvoiceID: winner.ID, Filename: filename, Skipped: true}, nil
		}
		return nil, fmt.Errorf("create invoice record: %w", err)
	}

	result, err := uc.extractor.Extract(ctx, pages)
	if err != nil {
		_ = uc.repo.UpdateStatus(ctx, inv.ID, domain.StatusFailed, err.Error())
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}

	items, err := uc.enrichAndEmbed(ctx, inv.ID, result)
	if err != nil {
		_ = uc.repo.UpdateStatus(ctx, inv.ID, domain.StatusFailed, err.Error())
		return nil, err
	}

	if err := uc.index.IndexLineItems(ctx, items); err != nil {
		_ = uc.repo.UpdateStatus(ctx, inv.ID, domain.StatusFailed, err.Error())
		return nil, fmt.Errorf("index line items: %w", err)
	}

	seconds := time.Since(start).Seconds()
	if err := uc.repo.FinishProcessing(ctx, inv.ID, result.PagesProcessed, seconds, result.Context); err != nil {
		return nil, fmt.Errorf("finalize invoice record: %w", err)
	}

	uc.log.Info("invoice ingested",
		"invoice_id", inv.ID,
		"filename", filename,
		"pages", result.PagesProcessed,
		"failed_pages", len(result.FailedPages),
		"line_items", len(items),
		"strategy", result.Strategy,
	)

	return &domain.IngestReport{
		InvoiceID:   inv.ID,
		Filename:    filename,
		LineItems:   len(items),
		FailedPages: result.FailedPages,
	}, nil
}

// enrichAndEmbed derives search text for every extracted item and embeds the
// texts in batches. Items are independent once extraction resolved their
// context, so batching happens only after all pages completed.
func (uc *IngestInvoiceUseCase) enrichAndEmbed(
	ctx context.Context,
	invoiceID string,
	result domain.ExtractionResult,
) ([]domain.StoredLineItem, error) {
	var stored []domain.StoredLineItem
	for _, page := range result.Pages {
		for _, item := range page.Items {
			stored = append(stored, domain.StoredLineItem{
				ID:         uuid.NewString(),
				InvoiceID:  invoiceID,
				PageNumber: page.PageNumber,
				LineItem:   item,
				SearchText: domain.BuildSearchText(result.Context.SenderName, item.Section, item.Description, item.ItemCode),
			})
		}
	}

	for lo := 0; lo < len(stored); lo += uc.embedBatchSize {
		hi := min(lo+uc.embedBatchSize, len(stored))
		texts := make([]string, 0, hi-lo)
		for _, s := range stored[lo:hi] {
			texts = append(texts, s.SearchText)
		}

		vectors, err := uc.embedder.EmbedPassages(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed line items: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, domain.WrapError(domain.ErrSchemaValidation, "embed line items",
				fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), len(texts)))
		}
		for i := range vectors {
			stored[lo+i].Vector = vectors[i]
		}
	}

	return stored, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ParseInvoiceDate converts a raw extracted ISO date into a time value.
// Anything non-ISO is treated as absent rather than failing the document.
func ParseInvoiceDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

// ParseTotalAmount normalizes a raw extracted total ("$1,234.56") into a
// float when possible.
func ParseTotalAmount(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := parseAmount(raw)
	if err != nil {
		return nil
	}
	return &v
}
