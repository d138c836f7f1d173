package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/pagefinder/internal/model"
)

// ParseKind tells which grammar produced a ParseResult.
type ParseKind int

const (
	ParseEmpty ParseKind = iota
	ParseStructured
	ParseLegacy
)

func (k ParseKind) String() string {
	switch k {
	case ParseStructured:
		return "structured"
	case ParseLegacy:
		return "legacy"
	default:
		return "empty"
	}
}

// ParseResult is the outcome of ParseResponse. Records is empty exactly when
// Kind is ParseEmpty.
type ParseResult struct {
	Kind    ParseKind
	Records []model.RelevanceRecord
}

// ParseResponse extracts relevance records from raw oracle text. The JSON
// envelope grammar is tried first, then the pipe-delimited line grammar.
// Malformed input never fails; it yields fewer records or none.
func ParseResponse(text string) ParseResult {
	if recs := parseStructured(text); len(recs) > 0 {
		return ParseResult{Kind: ParseStructured, Records: recs}
	}
	if recs := parseLegacy(text); len(recs) > 0 {
		return ParseResult{Kind: ParseLegacy, Records: recs}
	}
	return ParseResult{Kind: ParseEmpty}
}

type envelope struct {
	Pages []envelopePage `json:"pages"`
}

type envelopePage struct {
	PageNumber json.RawMessage `json:"page_number"`
	Note       json.RawMessage `json:"note"`
	Answer     json.RawMessage `json:"answer"`
	Summary    json.RawMessage `json:"summary"`
	Relevance  json.RawMessage `json:"relevance"`
}

func parseStructured(text string) []model.RelevanceRecord {
	cleaned := cleanJSON(text)
	if !strings.HasPrefix(cleaned, "{") {
		return nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return nil
	}

	var out []model.RelevanceRecord
	for _, p := range env.Pages {
		n, ok := pageNumber(p.PageNumber)
		if !ok {
			continue
		}
		note := rawString(p.Note)
		if note == "" {
			note = rawString(p.Answer)
		}
		if note == "" {
			note = rawString(p.Summary)
		}
		out = append(out, model.RelevanceRecord{
			PageNumber: n,
			Note:       note,
			Tier:       parseTier(rawString(p.Relevance)),
		})
	}
	return out
}

// pageNumber accepts an integer, an integral float, a numeric string or an
// array whose first element is one of those.
func pageNumber(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return pageNumberValue(v)
}

func pageNumberValue(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	case []any:
		if len(t) == 0 {
			return 0, false
		}
		return pageNumberValue(t[0])
	default:
		return 0, false
	}
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(string(raw), `"`))
}

func parseLegacy(text string) []model.RelevanceRecord {
	var out []model.RelevanceRecord
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Split(strings.TrimSpace(line), "|")
		if len(fields) != 3 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		out = append(out, model.RelevanceRecord{
			PageNumber: n,
			Note:       strings.TrimSpace(fields[1]),
			Tier:       parseTier(fields[2]),
		})
	}
	return out
}

// parseTier maps a relevance word to a tier. Anything unrecognized is Low.
func parseTier(s string) model.Tier {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "*\"'`. ")
	switch {
	case strings.HasPrefix(s, "high"), s == "상":
		return model.TierHigh
	case strings.HasPrefix(s, "med"), s == "중":
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// cleanJSON strips markdown code fences and surrounding prose, keeping the
// text from the first '{' to the last '}'.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if j := strings.LastIndex(text, "```"); j >= 0 {
			text = text[:j]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
