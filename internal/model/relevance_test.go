package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTierString(t *testing.T) {
	assert.Equal(t, "high", TierHigh.String())
	assert.Equal(t, "medium", TierMedium.String())
	assert.Equal(t, "low", TierLow.String())
	assert.True(t, TierHigh > TierMedium && TierMedium > TierLow)
}

func TestTierJSON(t *testing.T) {
	data, err := json.Marshal(RelevanceRecord{PageNumber: 3, Note: "X", Tier: TierHigh})
	require.NoError(t, err)
	assert.JSONEq(t, `{"page_number":3,"note":"X","tier":"high"}`, string(data))
}

func TestTierYAML(t *testing.T) {
	data, err := yaml.Marshal(RelevanceRecord{PageNumber: 12, Tier: TierMedium})
	require.NoError(t, err)
	assert.Contains(t, string(data), "tier: medium")
}

func TestAggregatedResult(t *testing.T) {
	var empty AggregatedResult
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.PageNumbers())

	r := AggregatedResult{Records: []RelevanceRecord{{PageNumber: 3}, {PageNumber: 12}}}
	assert.False(t, r.Empty())
	assert.Equal(t, []int{3, 12}, r.PageNumbers())
}
