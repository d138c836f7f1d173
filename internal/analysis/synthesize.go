package analysis

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pagefinder/internal/model"
	"github.com/sells-group/pagefinder/internal/oracle"
)

// Answer is the synthesized response for a selection.
type Answer struct {
	Query   string            `json:"query" yaml:"query"`
	Text    string            `json:"text" yaml:"text"`
	Mapping model.PageMapping `json:"mapping" yaml:"mapping"`
	Dropped []int             `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Usage   model.TokenUsage  `json:"usage" yaml:"usage"`
}

// Synthesize answers query from the selected pages of doc. The oracle only
// sees the sub-document, with the local to original page mapping embedded in
// the request so it can cite original page numbers.
func Synthesize(ctx context.Context, o oracle.Oracle, doc model.Document, query string, sel model.Selection, settings Settings) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if settings.SynthesisModel == "" || settings.SynthesisMaxTokens <= 0 {
		return nil, eris.Wrap(ErrInvalidConfiguration, "synthesis model and max tokens are required")
	}

	ms := MapSelection(doc, sel)
	if len(ms.Mapping) == 0 {
		return nil, eris.Wrapf(ErrEmptySelection, "selection %v against %d pages", []int(sel), doc.PageCount())
	}

	reply, err := o.Complete(ctx, oracle.Request{
		Phase:     oracle.PhaseSynthesize,
		Model:     settings.SynthesisModel,
		MaxTokens: settings.SynthesisMaxTokens,
		System:    synthesisInstruction,
		Prompt:    synthesisPrompt(query, ms, settings.MaxPageChars),
	})
	if err != nil {
		return nil, eris.Wrap(err, "analysis: synthesize")
	}

	zap.L().Info("analysis: synthesized answer",
		zap.Ints("pages", ms.Mapping.Originals()),
		zap.Int("dropped", len(ms.Dropped)),
		zap.Int("answer_len", len(reply.Text)),
		zap.Float64("estimated_cost_usd", reply.Usage.Cost),
	)

	return &Answer{
		Query:   query,
		Text:    strings.TrimSpace(reply.Text),
		Mapping: ms.Mapping,
		Dropped: ms.Dropped,
		Usage:   reply.Usage,
	}, nil
}
