package pdftext

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Parser extracts page-level text from PDF files. Page order follows the
// document; blank pages are kept so page numbers stay stable for filters.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) ParsePages(ctx context.Context, path string) ([]domain.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]domain.Page, 0, numPages)

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, domain.Page{Number: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from page %d: %w", i, err)
		}
		pages = append(pages, domain.Page{Number: i, Text: cleanText(text)})
	}

	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyDocument, "parse pdf", fmt.Errorf("%s has no pages", path))
	}
	return pages, nil
}

// cleanText normalizes extractor artifacts: CRLF line endings and runs of
// blank lines that PDF layout tools tend to produce.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
