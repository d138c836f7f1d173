package analysis

import (
	"github.com/rotisserie/eris"
)

// Settings are the tunables of one analysis run.
type Settings struct {
	Model        string
	MaxTokens    int64
	BatchSize    int
	MaxResults   int
	Concurrency  int
	MaxPageChars int
	Format       ResponseFormat

	SynthesisModel     string
	SynthesisMaxTokens int64
}

// DefaultSettings returns sequential five-page batches and a ten-page
// shortlist.
func DefaultSettings() Settings {
	return Settings{
		Model:              "claude-haiku-4-5-20251001",
		MaxTokens:          2048,
		BatchSize:          5,
		MaxResults:         10,
		Concurrency:        1,
		MaxPageChars:       8000,
		Format:             FormatJSON,
		SynthesisModel:     "claude-sonnet-4-5-20250929",
		SynthesisMaxTokens: 4096,
	}
}

// SinglePage switches s to one page per batch with a pool of three.
func (s Settings) SinglePage() Settings {
	s.BatchSize = 1
	s.Concurrency = 3
	return s
}

// Validate rejects settings that cannot run. All errors match
// ErrInvalidConfiguration.
func (s Settings) Validate() error {
	switch {
	case s.BatchSize <= 0:
		return eris.Wrapf(ErrInvalidConfiguration, "batch size %d must be positive", s.BatchSize)
	case s.MaxResults <= 0:
		return eris.Wrapf(ErrInvalidConfiguration, "max results %d must be positive", s.MaxResults)
	case s.Concurrency <= 0:
		return eris.Wrapf(ErrInvalidConfiguration, "concurrency %d must be positive", s.Concurrency)
	case s.MaxPageChars < 0:
		return eris.Wrapf(ErrInvalidConfiguration, "max page chars %d must not be negative", s.MaxPageChars)
	case s.Format != FormatJSON && s.Format != FormatLegacy:
		return eris.Wrapf(ErrInvalidConfiguration, "unknown response format %q", s.Format)
	case s.Model == "":
		return eris.Wrap(ErrInvalidConfiguration, "analysis model is empty")
	case s.MaxTokens <= 0:
		return eris.Wrapf(ErrInvalidConfiguration, "max tokens %d must be positive", s.MaxTokens)
	}
	return nil
}
