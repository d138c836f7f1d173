// Package oracle sends bounded requests to the inference oracle and turns
// its failures into the run-level taxonomy: quota exhausted, unavailable or
// rejected.
package oracle

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/pagefinder/internal/cost"
	"github.com/sells-group/pagefinder/internal/model"
	"github.com/sells-group/pagefinder/internal/resilience"
	"github.com/sells-group/pagefinder/pkg/anthropic"
)

// Phase names used in logs and usage attribution.
const (
	PhaseAnalyze    = "analyze"
	PhaseSynthesize = "synthesize"
)

// Request is one bounded oracle call.
type Request struct {
	Phase     string
	Model     string
	MaxTokens int64
	// System carries the instruction. It is sent as a cached block when
	// CacheSystem is set.
	System      string
	CacheSystem bool
	Prompt      string
	Temperature *float64

	// OnRetry, if set, is told about every retry sleep of this call.
	OnRetry func(attempt int, class resilience.FailureClass, delay time.Duration, err error)
}

// Reply is the oracle's raw text plus accounting.
type Reply struct {
	Text       string
	Model      string
	StopReason string
	Usage      model.TokenUsage
}

// Oracle is what the analysis engine needs from the inference service.
type Oracle interface {
	Complete(ctx context.Context, req Request) (*Reply, error)
}

// Client implements Oracle over the Anthropic Messages API with the retry
// policy and a shared pacer.
type Client struct {
	api     anthropic.Client
	policy  resilience.RetryPolicy
	limiter *resilience.AdaptiveLimiter
	calc    *cost.Calculator
}

// Option configures a Client.
type Option func(*Client)

// WithLimiter paces every attempt through l. The limiter is meant to be
// shared by all calls of the process.
func WithLimiter(l *resilience.AdaptiveLimiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithCalculator prices each reply's usage.
func WithCalculator(calc *cost.Calculator) Option {
	return func(c *Client) {
		c.calc = calc
	}
}

// New creates a Client.
func New(api anthropic.Client, policy resilience.RetryPolicy, opts ...Option) *Client {
	c := &Client{api: api, policy: policy}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends req, retrying per the policy. Failures come back as
// *Failure matching ErrQuotaExhausted, ErrOracleUnavailable or
// ErrOracleRejected; context cancellation is returned as is.
func (c *Client) Complete(ctx context.Context, req Request) (*Reply, error) {
	msg := anthropic.MessageRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}
	if req.System != "" {
		if req.CacheSystem {
			msg.System = anthropic.BuildCachedSystemBlocks(req.System)
		} else {
			msg.System = []anthropic.SystemBlock{{Text: req.System}}
		}
	}

	policy := c.policy
	logRetry := resilience.RetryLogger("oracle", req.Phase)
	policy.OnRetry = func(attempt int, class resilience.FailureClass, delay time.Duration, err error) {
		logRetry(attempt, class, delay, err)
		if req.OnRetry != nil {
			req.OnRetry(attempt, class, delay, err)
		}
	}

	resp, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		resp, err := c.api.CreateMessage(ctx, msg)
		if err != nil {
			if c.limiter != nil && resilience.IsRateLimited(err) {
				c.limiter.OnRateLimit()
			}
			return nil, err
		}
		if c.limiter != nil {
			c.limiter.OnSuccess()
		}
		return resp, nil
	})
	if err != nil {
		return nil, toFailure(req.Phase, err)
	}

	reply := &Reply{
		Text:       resp.Text(),
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Usage: model.TokenUsage{
			InputTokens:         int(resp.Usage.InputTokens),
			OutputTokens:        int(resp.Usage.OutputTokens),
			CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
			CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
		},
	}
	if reply.Model == "" {
		reply.Model = req.Model
	}
	if c.calc != nil {
		reply.Usage.Cost = c.calc.Usage(reply.Model, reply.Usage)
	}

	zap.L().Debug("oracle: call complete",
		zap.String("phase", req.Phase),
		zap.String("model", reply.Model),
		zap.String("stop_reason", reply.StopReason),
		zap.Int("input_tokens", reply.Usage.InputTokens),
		zap.Int("output_tokens", reply.Usage.OutputTokens),
		zap.Float64("estimated_cost_usd", reply.Usage.Cost),
	)
	return reply, nil
}

func toFailure(phase string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var ex *resilience.ExhaustedError
	if errors.As(err, &ex) {
		kind := ErrOracleUnavailable
		if ex.Class == resilience.ClassRateLimited {
			kind = ErrQuotaExhausted
		}
		return &Failure{Kind: kind, Phase: phase, Attempts: ex.Attempts, Err: ex.Err}
	}
	return &Failure{Kind: ErrOracleRejected, Phase: phase, Attempts: 1, Err: err}
}
