package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// maxSelectionSpan bounds a single "a-b" range.
const maxSelectionSpan = 10000

// ErrInvalidSelection is returned for a page list that cannot be parsed.
var ErrInvalidSelection = eris.New("model: invalid page selection")

// Selection is the set of page numbers chosen for synthesis. Order and
// duplicates carry no meaning.
type Selection []int

// ParseSelection parses a comma-separated page list such as "1-3,7". Spaces
// are ignored, ranges are inclusive, and empty parts are skipped. Page bounds
// are checked later against the document.
func ParseSelection(list string) (Selection, error) {
	sel := Selection{}
	for _, part := range strings.Split(strings.ReplaceAll(list, " ", ""), ",") {
		if part == "" {
			continue
		}
		pages, err := parseSelectionPart(part)
		if err != nil {
			return nil, err
		}
		sel = append(sel, pages...)
	}
	return sel, nil
}

func parseSelectionPart(part string) ([]int, error) {
	lo, hi, isRange := strings.Cut(part, "-")
	if !isRange {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidSelection, "page %q", part)
		}
		return []int{n}, nil
	}

	start, err1 := strconv.Atoi(lo)
	end, err2 := strconv.Atoi(hi)
	switch {
	case err1 != nil || err2 != nil:
		return nil, eris.Wrapf(ErrInvalidSelection, "range %q", part)
	case end < start:
		return nil, eris.Wrapf(ErrInvalidSelection, "range %q is reversed", part)
	case end-start >= maxSelectionSpan:
		return nil, eris.Wrapf(ErrInvalidSelection, "range %q spans more than %d pages", part, maxSelectionSpan)
	}

	pages := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		pages = append(pages, n)
	}
	return pages, nil
}

// UnmarshalJSON accepts a page list string ("1-3,7") or an array whose items
// are page numbers or page list strings.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var list string
	if err := json.Unmarshal(data, &list); err == nil {
		sel, err := ParseSelection(list)
		if err != nil {
			return err
		}
		*s = sel
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return eris.Wrap(ErrInvalidSelection, "want a string or an array")
	}
	sel := Selection{}
	for _, item := range items {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			sel = append(sel, n)
			continue
		}
		if err := json.Unmarshal(item, &list); err != nil {
			return eris.Wrapf(ErrInvalidSelection, "item %s", item)
		}
		pages, err := ParseSelection(list)
		if err != nil {
			return err
		}
		sel = append(sel, pages...)
	}
	*s = sel
	return nil
}

// MappingEntry pairs a page of a sub-document with its original page number.
type MappingEntry struct {
	Local    int `json:"local" yaml:"local"`
	Original int `json:"original" yaml:"original"`
}

// PageMapping maps sub-document pages 1..M to original page numbers, in
// strictly ascending original order.
type PageMapping []MappingEntry

// Original returns the original page number for a local index.
func (m PageMapping) Original(local int) (int, bool) {
	if local < 1 || local > len(m) {
		return 0, false
	}
	return m[local-1].Original, true
}

// Originals lists the original page numbers in local order.
func (m PageMapping) Originals() []int {
	out := make([]int, len(m))
	for i, e := range m {
		out[i] = e.Original
	}
	return out
}

// String renders one "local -> original" pair per line.
func (m PageMapping) String() string {
	var sb strings.Builder
	for _, e := range m {
		fmt.Fprintf(&sb, "Page %d of this excerpt = page %d of the original document\n", e.Local, e.Original)
	}
	return sb.String()
}
