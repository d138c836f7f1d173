package analysis

import (
	"cmp"
	"slices"

	"github.com/sells-group/pagefinder/internal/model"
)

// Aggregate merges the records of every batch into the ranked shortlist:
// Low records are dropped, duplicate pages keep their highest tier, and the
// rest is sorted by tier then page number and cut to k. When every record is
// Low, the first k records by page number are returned instead and Fallback
// is set.
func Aggregate(records []model.RelevanceRecord, k int) model.AggregatedResult {
	result := model.AggregatedResult{Records: []model.RelevanceRecord{}}
	if len(records) == 0 || k <= 0 {
		return result
	}

	kept := make([]model.RelevanceRecord, 0, len(records))
	for _, r := range records {
		if r.Tier != model.TierLow {
			kept = append(kept, r)
		}
	}

	if len(kept) == 0 {
		byPage := slices.Clone(records)
		slices.SortStableFunc(byPage, func(a, b model.RelevanceRecord) int {
			return cmp.Compare(a.PageNumber, b.PageNumber)
		})
		kept = byPage[:min(k, len(byPage))]
		result.Fallback = true
	}

	kept = dedupe(kept)

	slices.SortStableFunc(kept, func(a, b model.RelevanceRecord) int {
		if a.Tier != b.Tier {
			return cmp.Compare(b.Tier, a.Tier)
		}
		return cmp.Compare(a.PageNumber, b.PageNumber)
	})

	if len(kept) > k {
		kept = kept[:k]
	}
	result.Records = kept
	return result
}

// dedupe keeps one record per page: the higher tier wins. On equal tiers the
// first record stays, borrowing the other's note if its own is empty.
func dedupe(records []model.RelevanceRecord) []model.RelevanceRecord {
	index := make(map[int]int, len(records))
	out := make([]model.RelevanceRecord, 0, len(records))
	for _, r := range records {
		i, seen := index[r.PageNumber]
		if !seen {
			index[r.PageNumber] = len(out)
			out = append(out, r)
			continue
		}
		switch cur := &out[i]; {
		case r.Tier > cur.Tier:
			*cur = r
		case r.Tier == cur.Tier && cur.Note == "":
			cur.Note = r.Note
		}
	}
	return out
}
