// Package ocr turns a document file into page texts, one string per page in
// document order.
package ocr

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/pagefinder/internal/config"
)

// Extractor extracts per-page text from a document file.
type Extractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralAPIKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralAPIKey, cfg.MistralModel), nil
	case "text":
		return NewTextFile(), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// splitPages splits text on form feeds. pdftotext ends every page with one,
// so a trailing empty page is dropped.
func splitPages(text string) []string {
	if text == "" {
		return nil
	}
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// normalize applies NFKC so ligatures and full-width forms from PDF text
// layers compare and tokenize like plain text.
func normalize(pages []string) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = strings.TrimRight(norm.NFKC.String(p), " \t\r\n")
	}
	return out
}
