package analysis

import (
	"time"

	"github.com/sells-group/pagefinder/internal/model"
	"github.com/sells-group/pagefinder/internal/resilience"
)

// EventKind identifies a progress event.
type EventKind int

const (
	EventBatchStarted EventKind = iota
	EventBatchCompleted
	EventBatchFailed
	EventBatchSkipped
	EventRetry
)

func (k EventKind) String() string {
	switch k {
	case EventBatchStarted:
		return "batch_started"
	case EventBatchCompleted:
		return "batch_completed"
	case EventBatchFailed:
		return "batch_failed"
	case EventBatchSkipped:
		return "batch_skipped"
	case EventRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Event reports session progress to a subscriber. Fields not meaningful for
// the kind are zero.
type Event struct {
	Kind    EventKind
	Session string
	Batch   model.Batch
	Total   int // number of batches in the run

	Records int // records kept, on EventBatchCompleted

	Attempt int // failed attempt number, on EventRetry
	Class   resilience.FailureClass
	Delay   time.Duration

	Err error // on EventBatchFailed and EventRetry
}
