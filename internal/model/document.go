package model

// Page is one page of a Document. Number is the 1-based position in the
// document the page was taken from.
type Page struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Document is an ordered, 1-indexed sequence of pages. It is built once per
// request and not modified afterwards.
type Document struct {
	Name  string `json:"name,omitempty"`
	Pages []Page `json:"pages"`
}

// NewDocument numbers the given page contents 1..N.
func NewDocument(name string, contents []string) Document {
	pages := make([]Page, len(contents))
	for i, c := range contents {
		pages[i] = Page{Number: i + 1, Content: c}
	}
	return Document{Name: name, Pages: pages}
}

// PageCount returns N.
func (d Document) PageCount() int {
	return len(d.Pages)
}

// Page returns the page with the given 1-based number.
func (d Document) Page(n int) (Page, bool) {
	if n < 1 || n > len(d.Pages) {
		return Page{}, false
	}
	return d.Pages[n-1], true
}

// Slice returns the pages covered by b, in order. Out-of-range bounds are
// clamped to the document.
func (d Document) Slice(b Batch) []Page {
	start, end := b.Start, b.End
	if start < 1 {
		start = 1
	}
	if end > len(d.Pages) {
		end = len(d.Pages)
	}
	if start > end {
		return nil
	}
	return d.Pages[start-1 : end]
}
