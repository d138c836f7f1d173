package model

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens         int     `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens        int     `json:"output_tokens" yaml:"output_tokens"`
	CacheCreationTokens int     `json:"cache_creation_tokens" yaml:"cache_creation_tokens"`
	CacheReadTokens     int     `json:"cache_read_tokens" yaml:"cache_read_tokens"`
	Cost                float64 `json:"cost" yaml:"cost"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.CacheCreationTokens += other.CacheCreationTokens
	t.CacheReadTokens += other.CacheReadTokens
	t.Cost += other.Cost
}
