package ocr

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
)

// TextFile reads pre-extracted text where pages are separated by form feeds.
type TextFile struct{}

// NewTextFile creates a TextFile extractor.
func NewTextFile() *TextFile {
	return &TextFile{}
}

// ExtractPages reads path and splits it into pages.
func (TextFile) ExtractPages(_ context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: read text %s", path)
	}
	return normalize(splitPages(string(data))), nil
}
