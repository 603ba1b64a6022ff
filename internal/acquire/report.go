package acquire

import (
	"context"
	"fmt"
	"time"
)

// Progress is the running tally emitted at checkpoints.
type Progress struct {
	RunID     string
	Processed int
	Total     int
	Uploaded  int
	Skipped   int
	Errors    int
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	Total      int
	Pending    int
	Uploaded   int
	Skipped    int
	Errors     int
	Retries    int
	Failed     []string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     Status
}

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusAborted   Status = "aborted"
)

// Duration returns the wall time the run took.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// String renders the counts the way operators see them.
func (s Summary) String() string {
	return fmt.Sprintf("uploaded=%d, skipped=%d, errors=%d", s.Uploaded, s.Skipped, s.Errors)
}

// Reporter receives run lifecycle notifications. Implementations must not
// block for long; they run on the pipeline goroutine.
type Reporter interface {
	Started(ctx context.Context, runID string, total, pending int)
	RateLimited(ctx context.Context, item Item, cooldown time.Duration)
	Progress(ctx context.Context, p Progress)
	Finished(ctx context.Context, s Summary)
}

// NopReporter discards every notification.
type NopReporter struct{}

func (NopReporter) Started(context.Context, string, int, int)        {}
func (NopReporter) RateLimited(context.Context, Item, time.Duration) {}
func (NopReporter) Progress(context.Context, Progress)               {}
func (NopReporter) Finished(context.Context, Summary)                {}
