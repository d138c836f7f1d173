package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pagefinder/internal/analysis"
	"github.com/sells-group/pagefinder/internal/config"
	"github.com/sells-group/pagefinder/internal/cost"
	"github.com/sells-group/pagefinder/internal/model"
	"github.com/sells-group/pagefinder/internal/ocr"
	"github.com/sells-group/pagefinder/internal/oracle"
	"github.com/sells-group/pagefinder/internal/resilience"
	"github.com/sells-group/pagefinder/pkg/anthropic"
)

// initOracle builds the oracle client from config. The limiter is shared by
// every call the process makes.
func initOracle(c *config.Config) *oracle.Client {
	opts := []option.RequestOption{}
	if c.Anthropic.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.Anthropic.BaseURL))
	}
	if t := c.Timeout(); t > 0 {
		opts = append(opts, option.WithRequestTimeout(t))
	}
	api := anthropic.NewClient(c.Anthropic.Key, opts...)

	return oracle.New(api, c.RetryPolicy(),
		oracle.WithLimiter(resilience.NewPerMinuteLimiter(c.Rate.RequestsPerMinute, c.Rate.Burst)),
		oracle.WithCalculator(cost.NewCalculator(c.Rates())),
	)
}

// loadDocument extracts the pages of path. Plain .txt files are always read
// directly, split on form feeds.
func loadDocument(ctx context.Context, c config.OCRConfig, path string) (model.Document, error) {
	if path == "" {
		return model.Document{}, eris.New("--file is required")
	}

	ocrCfg := c
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		ocrCfg.Provider = "text"
	}
	ext, err := ocr.NewExtractor(ocrCfg)
	if err != nil {
		return model.Document{}, err
	}

	pages, err := ext.ExtractPages(ctx, path)
	if err != nil {
		return model.Document{}, eris.Wrapf(err, "extract pages from %s", path)
	}

	zap.L().Info("document loaded",
		zap.String("file", path),
		zap.String("provider", ocrCfg.Provider),
		zap.Int("pages", len(pages)),
	)
	return model.NewDocument(filepath.Base(path), pages), nil
}

// logProgress is the zap progress subscriber used by the CLI and server.
func logProgress(e analysis.Event) {
	fields := []zap.Field{
		zap.String("session", e.Session),
		zap.Stringer("batch", e.Batch),
		zap.Int("total_batches", e.Total),
	}

	switch e.Kind {
	case analysis.EventBatchStarted:
		zap.L().Debug("batch started", fields...)
	case analysis.EventBatchCompleted:
		zap.L().Info("batch completed", append(fields, zap.Int("records", e.Records))...)
	case analysis.EventBatchFailed:
		zap.L().Warn("batch failed", append(fields, zap.Error(e.Err))...)
	case analysis.EventBatchSkipped:
		zap.L().Warn("batch skipped", fields...)
	case analysis.EventRetry:
		zap.L().Info("oracle retry scheduled", append(fields,
			zap.Int("attempt", e.Attempt),
			zap.String("class", e.Class.String()),
			zap.Duration("delay", e.Delay),
		)...)
	}
}
