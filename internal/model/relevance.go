package model

import "encoding/json"

// Tier is the relevance classification of a page. Higher values rank first.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalJSON renders the tier by name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// MarshalYAML renders the tier by name.
func (t Tier) MarshalYAML() (any, error) {
	return t.String(), nil
}

// RelevanceRecord is the oracle's judgment for one page.
type RelevanceRecord struct {
	PageNumber int    `json:"page_number" yaml:"page_number"`
	Note       string `json:"note" yaml:"note"`
	Tier       Tier   `json:"tier" yaml:"tier"`
}

// AggregatedResult is the ranked shortlist shown to the user.
type AggregatedResult struct {
	Records []RelevanceRecord `json:"records" yaml:"records"`

	// Fallback is set when every record was Low and the shortlist was built
	// from the lowest page numbers instead.
	Fallback bool `json:"fallback" yaml:"fallback"`
}

// Empty reports whether no page made the shortlist.
func (r AggregatedResult) Empty() bool {
	return len(r.Records) == 0
}

// PageNumbers returns the shortlisted page numbers in rank order.
func (r AggregatedResult) PageNumbers() []int {
	out := make([]int, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.PageNumber
	}
	return out
}
