package analysis

import (
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/pagefinder/internal/model"
)

// MappedSelection is the sub-document built from a Selection.
type MappedSelection struct {
	// Document holds the selected pages renumbered 1..M.
	Document model.Document `json:"-"`
	Mapping  model.PageMapping `json:"mapping"`
	// Dropped lists selected page numbers outside the original document.
	Dropped []int `json:"dropped,omitempty"`
}

// MapSelection builds the ordered sub-document for sel. Pages outside
// [1, N] are dropped with a warning and duplicates collapse; the rest are
// ordered by ascending original page number, so local page 1 is always the
// smallest selected page.
func MapSelection(doc model.Document, sel model.Selection) MappedSelection {
	n := doc.PageCount()
	seen := make(map[int]bool, len(sel))
	var valid, dropped []int
	for _, p := range sel {
		if p < 1 || p > n {
			dropped = append(dropped, p)
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		valid = append(valid, p)
	}
	slices.Sort(valid)

	if len(dropped) > 0 {
		zap.L().Warn("analysis: dropping selected pages outside document",
			zap.Ints("pages", dropped),
			zap.Int("page_count", n),
		)
	}

	contents := make([]string, len(valid))
	mapping := make(model.PageMapping, len(valid))
	for i, p := range valid {
		page, _ := doc.Page(p)
		contents[i] = page.Content
		mapping[i] = model.MappingEntry{Local: i + 1, Original: p}
	}

	return MappedSelection{
		Document: model.NewDocument(doc.Name, contents),
		Mapping:  mapping,
		Dropped:  dropped,
	}
}
