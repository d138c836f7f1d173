// Package analysis is the batch relevance-analysis engine: it splits a
// document into batches, asks the oracle to judge each batch, and merges the
// answers into a ranked shortlist of pages. Synthesize then answers the
// question from a chosen subset of pages.
package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pagefinder/internal/model"
	"github.com/sells-group/pagefinder/internal/oracle"
	"github.com/sells-group/pagefinder/internal/resilience"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusComplete Status = "complete"
	// StatusIncomplete means the oracle quota ran out and some batches were
	// never analyzed. The result holds what completed.
	StatusIncomplete Status = "incomplete"
)

// Batch failure reasons.
const (
	ReasonQuotaExhausted = "quota_exhausted"
	ReasonUnavailable    = "unavailable"
	ReasonRejected       = "rejected"
)

// BatchFailure records a batch that contributed no records.
type BatchFailure struct {
	Batch  model.Batch `json:"batch" yaml:"batch"`
	Reason string      `json:"reason" yaml:"reason"`
	Error  string      `json:"error" yaml:"error"`
}

// Outcome is the result of Session.Run.
type Outcome struct {
	SessionID string                 `json:"session_id" yaml:"session_id"`
	Query     string                 `json:"query" yaml:"query"`
	PageCount int                    `json:"page_count" yaml:"page_count"`
	Status    Status                 `json:"status" yaml:"status"`
	Result    model.AggregatedResult `json:"result" yaml:"result"`
	Batches   int                    `json:"batches" yaml:"batches"`
	Failed    []BatchFailure         `json:"failed,omitempty" yaml:"failed,omitempty"`
	Skipped   []model.Batch          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Usage     model.TokenUsage       `json:"usage" yaml:"usage"`
	ElapsedMs int64                  `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// Incomplete reports whether the run stopped early on quota exhaustion.
func (o *Outcome) Incomplete() bool {
	return o.Status == StatusIncomplete
}

// Session owns all state of one analysis request. It must not be shared
// across requests or run twice.
type Session struct {
	id       string
	doc      model.Document
	query    string
	oracle   oracle.Oracle
	settings Settings
	onEvent  func(Event)

	total   int
	stopped atomic.Bool

	mu          sync.Mutex
	interrupted error
	records     []model.RelevanceRecord
	failed  []BatchFailure
	skipped []model.Batch
	usage   model.TokenUsage
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithProgress subscribes fn to progress events. fn may be called from
// several goroutines at once.
func WithProgress(fn func(Event)) SessionOption {
	return func(s *Session) {
		s.onEvent = fn
	}
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		s.id = id
	}
}

// NewSession validates the run parameters and returns a session ready to
// Run. No oracle call is made.
func NewSession(doc model.Document, query string, o oracle.Oracle, settings Settings, opts ...SessionOption) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	s := &Session{
		id:       uuid.New().String(),
		doc:      doc,
		query:    strings.TrimSpace(query),
		oracle:   o,
		settings: settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session ID used in logs and events.
func (s *Session) ID() string {
	return s.id
}

// Run analyzes every batch and aggregates the results. Batch-level oracle
// failures are recorded in the Outcome, not returned. Quota exhaustion stops
// dispatching new batches and marks the Outcome incomplete; batches already
// in flight still finish. Only context cancellation returns an error; that
// includes an oracle call that gave up because it could not complete before
// ctx's deadline.
func (s *Session) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	log := zap.L().With(zap.String("session", s.id))

	batches, err := Segment(s.doc.PageCount(), s.settings.BatchSize)
	if err != nil {
		return nil, err
	}
	s.total = len(batches)

	log.Info("analysis: starting",
		zap.Int("pages", s.doc.PageCount()),
		zap.Int("batches", len(batches)),
		zap.Int("batch_size", s.settings.BatchSize),
		zap.Int("concurrency", s.settings.Concurrency),
	)

	system := analysisInstruction(s.settings.Format, s.settings.MaxResults)

	if s.settings.Concurrency <= 1 {
		for _, b := range batches {
			if ctx.Err() != nil || s.interruption() != nil {
				break
			}
			s.runBatch(ctx, b, system)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.settings.Concurrency)
		for _, b := range batches {
			if gctx.Err() != nil || s.interruption() != nil {
				break
			}
			g.Go(func() error {
				s.runBatch(gctx, b, system)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "analysis: run cancelled")
	}
	if err := s.interruption(); err != nil {
		return nil, eris.Wrap(err, "analysis: run cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Outcome{
		SessionID: s.id,
		Query:     s.query,
		PageCount: s.doc.PageCount(),
		Status:    StatusComplete,
		Result:    Aggregate(s.records, s.settings.MaxResults),
		Batches:   len(batches),
		Failed:    s.failed,
		Skipped:   s.skipped,
		Usage:     s.usage,
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	if s.stopped.Load() {
		out.Status = StatusIncomplete
	}

	log.Info("analysis: complete",
		zap.String("status", string(out.Status)),
		zap.Int("results", len(out.Result.Records)),
		zap.Bool("fallback", out.Result.Fallback),
		zap.Int("failed_batches", len(out.Failed)),
		zap.Int("skipped_batches", len(out.Skipped)),
		zap.Int("input_tokens", out.Usage.InputTokens),
		zap.Int("output_tokens", out.Usage.OutputTokens),
		zap.Float64("estimated_cost_usd", out.Usage.Cost),
		zap.Int64("elapsed_ms", out.ElapsedMs),
	)
	return out, nil
}

func (s *Session) runBatch(ctx context.Context, b model.Batch, system string) {
	if s.stopped.Load() {
		s.mu.Lock()
		s.skipped = append(s.skipped, b)
		s.mu.Unlock()
		s.emit(Event{Kind: EventBatchSkipped, Batch: b})
		return
	}
	if ctx.Err() != nil || s.interruption() != nil {
		return
	}

	s.emit(Event{Kind: EventBatchStarted, Batch: b})

	reply, err := s.oracle.Complete(ctx, oracle.Request{
		Phase:       oracle.PhaseAnalyze,
		Model:       s.settings.Model,
		MaxTokens:   s.settings.MaxTokens,
		System:      system,
		CacheSystem: true,
		Prompt:      batchPrompt(s.query, s.doc.Slice(b), s.settings.MaxPageChars),
		OnRetry: func(attempt int, class resilience.FailureClass, delay time.Duration, err error) {
			s.emit(Event{Kind: EventRetry, Batch: b, Attempt: attempt, Class: class, Delay: delay, Err: err})
		},
	})
	if err != nil {
		s.fail(b, err)
		return
	}

	parsed := ParseResponse(reply.Text)
	kept := make([]model.RelevanceRecord, 0, len(parsed.Records))
	for _, r := range parsed.Records {
		if !b.Contains(r.PageNumber) {
			zap.L().Warn("analysis: discarding record outside its batch",
				zap.String("session", s.id),
				zap.Stringer("batch", b),
				zap.Int("page", r.PageNumber),
			)
			continue
		}
		kept = append(kept, r)
	}

	s.mu.Lock()
	s.records = append(s.records, kept...)
	s.usage.Add(reply.Usage)
	s.mu.Unlock()

	zap.L().Debug("analysis: batch complete",
		zap.String("session", s.id),
		zap.Stringer("batch", b),
		zap.Stringer("grammar", parsed.Kind),
		zap.Int("records", len(kept)),
	)
	s.emit(Event{Kind: EventBatchCompleted, Batch: b, Records: len(kept)})
}

func (s *Session) fail(b model.Batch, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.mu.Lock()
		if s.interrupted == nil {
			s.interrupted = err
			zap.L().Warn("analysis: oracle call cancelled, stopping run",
				zap.String("session", s.id), zap.Stringer("batch", b), zap.Error(err))
		}
		s.mu.Unlock()
		return
	}

	log := zap.L().With(zap.String("session", s.id), zap.Stringer("batch", b), zap.Error(err))
	var reason string
	switch {
	case errors.Is(err, oracle.ErrQuotaExhausted):
		reason = ReasonQuotaExhausted
		if s.stopped.CompareAndSwap(false, true) {
			log.Error("analysis: oracle quota exhausted, skipping remaining batches")
		}
	case errors.Is(err, oracle.ErrOracleUnavailable):
		reason = ReasonUnavailable
		log.Warn("analysis: batch failed, oracle unavailable")
	default:
		reason = ReasonRejected
		log.Error("analysis: batch rejected by oracle")
	}

	s.mu.Lock()
	s.failed = append(s.failed, BatchFailure{Batch: b, Reason: reason, Error: err.Error()})
	s.mu.Unlock()
	s.emit(Event{Kind: EventBatchFailed, Batch: b, Err: err})
}

func (s *Session) interruption() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupted
}

func (s *Session) emit(e Event) {
	if s.onEvent == nil {
		return
	}
	e.Session = s.id
	e.Total = s.total
	s.onEvent(e)
}
