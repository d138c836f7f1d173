package analysis

import (
	"fmt"
	"strings"

	"github.com/sells-group/pagefinder/internal/model"
)

// ResponseFormat selects the output grammar the analysis instruction asks
// for. Both grammars are always accepted when parsing.
type ResponseFormat string

const (
	FormatJSON   ResponseFormat = "json"
	FormatLegacy ResponseFormat = "legacy"
)

const tierTaxonomy = `Relevance tiers:
- high: the page directly answers the question or contains its key facts.
- medium: the page gives background or supporting detail for the question.
- low: the page is unrelated or mentions the topic only in passing.`

const analysisPreamble = `You judge how relevant each page of a document excerpt is to a user's question. Each page is introduced by a line "=== Page N ===" where N is the page's number in the original document. Always report that number, never a position within the excerpt. Judge every page independently.`

const jsonGrammar = `Respond with a single JSON object and nothing else, in exactly this shape:
{"pages": [{"page_number": 12, "note": "what the page says about the question", "relevance": "high"}]}

Fields:
- page_number: integer, the N of the page's "=== Page N ===" line.
- note: at most 30 words on what the page contributes. May be empty for medium pages.
- relevance: exactly one of "high", "medium", "low".`

const legacyGrammar = `Respond with one line per page and nothing else. Each line has exactly three fields separated by the pipe character "|":
page_number|note|relevance

Fields:
- page_number: integer, the N of the page's "=== Page N ===" line.
- note: at most 30 words on what the page contributes. Must not contain "|" or a line break. May be empty for medium pages.
- relevance: exactly one of high, medium, low.`

// analysisInstruction is the system instruction for relevance batches. It
// depends only on the format and k, so it is identical for every batch of a
// session and can be cached.
func analysisInstruction(format ResponseFormat, k int) string {
	grammar := jsonGrammar
	if format == FormatLegacy {
		grammar = legacyGrammar
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n\nReport only high and medium pages, at most %d of them. If no page is high or medium, report the closest low pages instead, still at most %d. If nothing in the excerpt relates to the question, report no pages.",
		analysisPreamble, tierTaxonomy, grammar, k, k)
}

// batchPrompt frames the batch's pages with their original numbers.
func batchPrompt(query string, pages []model.Page, maxChars int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", query)
	for _, p := range pages {
		fmt.Fprintf(&sb, "=== Page %d ===\n%s\n\n", p.Number, truncate(p.Content, maxChars))
	}
	return strings.TrimRight(sb.String(), "\n")
}

const synthesisInstruction = `You answer a user's question using only the document excerpt provided. The excerpt holds selected pages of a larger document; a mapping from excerpt pages to original page numbers is given with the question. Whenever you use information from a page, cite its original page number (for example "according to page 10"), never the excerpt numbering. Lead with the direct answer, then give supporting detail. If the excerpt does not answer the question, say so plainly.`

func synthesisPrompt(query string, ms MappedSelection, maxChars int) string {
	var sb strings.Builder
	sb.WriteString("Page mapping:\n")
	sb.WriteString(ms.Mapping.String())
	fmt.Fprintf(&sb, "\nQuestion: %s\n\n", query)
	for _, p := range ms.Document.Pages {
		orig, _ := ms.Mapping.Original(p.Number)
		fmt.Fprintf(&sb, "=== Excerpt page %d (original page %d) ===\n%s\n\n", p.Number, orig, truncate(p.Content, maxChars))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// truncate cuts s to at most n runes. n <= 0 means no limit.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
