package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pagefinder/internal/model"
)

func TestParseResponse_Structured(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []model.RelevanceRecord
	}{
		{
			name: "plain object",
			text: `{"pages":[{"page_number":3,"note":"defines capital","relevance":"high"},{"page_number":4,"note":"","relevance":"medium"}]}`,
			want: []model.RelevanceRecord{
				{PageNumber: 3, Note: "defines capital", Tier: model.TierHigh},
				{PageNumber: 4, Note: "", Tier: model.TierMedium},
			},
		},
		{
			name: "fenced with prose",
			text: "Here are the results:\n```json\n{\"pages\": [{\"page_number\": 7, \"answer\": \"rate table\", \"relevance\": \"High\"}]}\n```\nLet me know.",
			want: []model.RelevanceRecord{{PageNumber: 7, Note: "rate table", Tier: model.TierHigh}},
		},
		{
			name: "page number as array and string",
			text: `{"pages":[{"page_number":[9,10],"note":"a","relevance":"medium"},{"page_number":"11","note":"b","relevance":"low"}]}`,
			want: []model.RelevanceRecord{
				{PageNumber: 9, Note: "a", Tier: model.TierMedium},
				{PageNumber: 11, Note: "b", Tier: model.TierLow},
			},
		},
		{
			name: "summary field and unusable page numbers skipped",
			text: `{"pages":[{"page_number":null,"note":"x","relevance":"high"},{"page_number":2.5,"relevance":"high"},{"page_number":5,"summary":"overview","relevance":"상"}]}`,
			want: []model.RelevanceRecord{{PageNumber: 5, Note: "overview", Tier: model.TierHigh}},
		},
		{
			name: "unknown relevance word is low",
			text: `{"pages":[{"page_number":1,"note":"n","relevance":"somewhat"}]}`,
			want: []model.RelevanceRecord{{PageNumber: 1, Note: "n", Tier: model.TierLow}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.text)
			assert.Equal(t, ParseStructured, got.Kind)
			assert.Equal(t, tt.want, got.Records)
		})
	}
}

func TestParseResponse_Legacy(t *testing.T) {
	text := `Relevant pages:
3|explains the formula|high
not a record
4|two|fields|too many
x|bad page|high
5||medium
  6 | padded note | Low
7|missing relevance`

	got := ParseResponse(text)
	assert.Equal(t, ParseLegacy, got.Kind)
	assert.Equal(t, []model.RelevanceRecord{
		{PageNumber: 3, Note: "explains the formula", Tier: model.TierHigh},
		{PageNumber: 5, Note: "", Tier: model.TierMedium},
		{PageNumber: 6, Note: "padded note", Tier: model.TierLow},
	}, got.Records)
}

func TestParseLegacy_EachWellFormedLineYieldsOneRecord(t *testing.T) {
	lines := []struct {
		line string
		ok   bool
	}{
		{"1|a|high", true},
		{"12|note with {braces}|medium", true},
		{"-3|negative|low", true},
		{"1|a|b|c", false},
		{"1|a", false},
		{"one|a|high", false},
		{"", false},
		{"1.5|a|high", false},
	}

	for _, l := range lines {
		got := parseLegacy(l.line)
		if l.ok {
			assert.Len(t, got, 1, l.line)
		} else {
			assert.Empty(t, got, l.line)
		}
	}
}

func TestParseResponse_StructuredPreferredOverLegacy(t *testing.T) {
	text := "1|legacy|high\n{\"pages\":[{\"page_number\":2,\"note\":\"json\",\"relevance\":\"high\"}]}"

	got := ParseResponse(text)
	assert.Equal(t, ParseStructured, got.Kind)
	assert.Equal(t, []model.RelevanceRecord{{PageNumber: 2, Note: "json", Tier: model.TierHigh}}, got.Records)
}

func TestParseResponse_BrokenJSONFallsBackToLegacy(t *testing.T) {
	text := "{\"pages\": [ {\"page_number\": 2,\n2|from lines|medium"

	got := ParseResponse(text)
	assert.Equal(t, ParseLegacy, got.Kind)
	assert.Equal(t, []model.RelevanceRecord{{PageNumber: 2, Note: "from lines", Tier: model.TierMedium}}, got.Records)
}

func TestParseResponse_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "No relevant pages.", `{"pages": []}`, "```json\n{}\n```"} {
		got := ParseResponse(text)
		assert.Equal(t, ParseEmpty, got.Kind, text)
		assert.Empty(t, got.Records, text)
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want model.Tier
	}{
		{"high", model.TierHigh},
		{" HIGH ", model.TierHigh},
		{"**High**", model.TierHigh},
		{"high relevance", model.TierHigh},
		{"medium", model.TierMedium},
		{"Med", model.TierMedium},
		{"중", model.TierMedium},
		{"low", model.TierLow},
		{"하", model.TierLow},
		{"", model.TierLow},
		{"critical", model.TierLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseTier(tt.in), tt.in)
	}
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Sure! {\"a\":1} Hope it helps.", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}
