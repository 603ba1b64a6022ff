package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"voicebot/internal/catalog"
	"voicebot/internal/handlecache"
	"voicebot/internal/logging"
)

// Policy defaults.
const (
	DefaultMaxAttempts     = 3
	DefaultCheckpointEvery = 10
	DefaultInterItemDelay  = 500 * time.Millisecond
	DefaultRateLimitMargin = time.Second
	DefaultTransientDelay  = time.Second
)

// Options tunes the retry and pacing policy.
type Options struct {
	MaxAttempts     int
	CheckpointEvery int
	InterItemDelay  time.Duration
	RateLimitMargin time.Duration
	TransientDelay  time.Duration

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now stamps run boundaries. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// DefaultOptions returns the standard policy.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:     DefaultMaxAttempts,
		CheckpointEvery: DefaultCheckpointEvery,
		InterItemDelay:  DefaultInterItemDelay,
		RateLimitMargin: DefaultRateLimitMargin,
		TransientDelay:  DefaultTransientDelay,
	}
}

// Pipeline runs one acquisition pass over a catalog.
type Pipeline struct {
	catalog   *catalog.Catalog
	cache     *handlecache.Cache
	store     Saver
	transport Transport
	reporter  Reporter
	opts      Options
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New wires a pipeline. A nil reporter discards notifications.
func New(cat *catalog.Catalog, cache *handlecache.Cache, store Saver, transport Transport, reporter Reporter, opts Options) *Pipeline {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = DefaultCheckpointEvery
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepWithContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if reporter == nil {
		reporter = NopReporter{}
	}

	limit := rate.Inf
	if opts.InterItemDelay > 0 {
		limit = rate.Every(opts.InterItemDelay)
	}

	return &Pipeline{
		catalog:   cat,
		cache:     cache,
		store:     store,
		transport: transport,
		reporter:  reporter,
		opts:      opts,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logging.NewComponentLogger(opts.Logger, "acquire"),
	}
}

// Run processes every catalog entry once. Per-entry failures never abort the
// run. A failed checkpoint or final save does, and the summary gathered so far
// is returned with the error. Cancellation persists the cache and returns
// ctx.Err().
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	entries := p.catalog.Entries()
	summary := Summary{
		RunID:     uuid.NewString(),
		Total:     len(entries),
		StartedAt: p.opts.Now(),
	}
	for _, entry := range entries {
		if !p.cache.Has(entry.Identifier) {
			summary.Pending++
		}
	}
	logger := p.logger.With(logging.String(logging.FieldRunID, summary.RunID))

	logger.Info("acquisition started",
		logging.String(logging.FieldEventType, "acquire_started"),
		logging.Int("total", summary.Total),
		logging.Int("pending", summary.Pending))
	p.reporter.Started(ctx, summary.RunID, summary.Total, summary.Pending)

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return p.stop(ctx, logger, summary, err)
		}
		if p.cache.Has(entry.Identifier) {
			summary.Skipped++
			continue
		}
		if err := p.pace(ctx); err != nil {
			return p.stop(ctx, logger, summary, err)
		}

		item := Item{
			Identifier: entry.Identifier,
			Label:      entry.Label,
			Path:       p.catalog.Path(entry.Identifier),
		}
		acquired, retries, err := p.acquireEntry(ctx, logger, item)
		summary.Retries += retries
		if err != nil {
			return p.stop(ctx, logger, summary, err)
		}
		if !acquired {
			summary.Errors++
			summary.Failed = append(summary.Failed, item.Identifier)
			continue
		}

		summary.Uploaded++
		if summary.Uploaded%p.opts.CheckpointEvery == 0 {
			if err := p.store.Save(p.cache.Snapshot()); err != nil {
				return p.abort(ctx, logger, summary, fmt.Errorf("checkpoint handle cache: %w", err))
			}
			progress := Progress{
				RunID:     summary.RunID,
				Processed: i + 1,
				Total:     summary.Total,
				Uploaded:  summary.Uploaded,
				Skipped:   summary.Skipped,
				Errors:    summary.Errors,
			}
			logger.Info("acquisition checkpoint",
				logging.String(logging.FieldEventType, "acquire_checkpoint"),
				logging.Int("processed", progress.Processed),
				logging.Int("total", progress.Total),
				logging.Int("uploaded", progress.Uploaded),
				logging.Int("skipped", progress.Skipped),
				logging.Int("errors", progress.Errors))
			p.reporter.Progress(ctx, progress)
		}
	}

	if err := p.store.Save(p.cache.Snapshot()); err != nil {
		return p.abort(ctx, logger, summary, fmt.Errorf("save handle cache: %w", err))
	}
	summary.Status = StatusCompleted
	summary.FinishedAt = p.opts.Now()
	logger.Info("acquisition finished",
		logging.String(logging.FieldEventType, "acquire_finished"),
		logging.Int("uploaded", summary.Uploaded),
		logging.Int("skipped", summary.Skipped),
		logging.Int("errors", summary.Errors),
		logging.Int("retries", summary.Retries),
		logging.Duration("duration", summary.Duration()))
	p.reporter.Finished(ctx, summary)
	return summary, nil
}

// acquireEntry drives the retry loop for a single clip. It returns whether a
// handle was cached and how many retries were spent. A non-nil error means
// the context ended.
func (p *Pipeline) acquireEntry(ctx context.Context, logger *slog.Logger, item Item) (bool, int, error) {
	logger = logger.With(logging.String(logging.FieldClip, item.Identifier))
	retries := 0
	var lastErr error

	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		outcome := p.transport.Acquire(ctx, item)
		if err := ctx.Err(); err != nil && outcome.Kind != KindSuccess {
			return false, retries, err
		}

		var wait time.Duration
		switch outcome.Kind {
		case KindSuccess:
			if strings.TrimSpace(outcome.Handle) == "" {
				lastErr = errors.New("transport returned an empty handle")
				wait = p.opts.TransientDelay
				logger.Warn("acquisition returned no handle",
					logging.String(logging.FieldEventType, "acquire_empty_handle"),
					logging.Int("attempt", attempt))
				break
			}
			p.cache.Put(item.Identifier, outcome.Handle)
			p.discard(ctx, logger, outcome)
			logger.Debug("clip acquired", logging.Int("attempt", attempt))
			return true, retries, nil
		case KindRateLimited:
			lastErr = outcome.Err
			wait = outcome.Cooldown + p.opts.RateLimitMargin
			logging.WarnWithContext(logger, "transport rate limited", "acquire_rate_limited",
				logging.Int("attempt", attempt),
				logging.Duration("cooldown", outcome.Cooldown),
				logging.String(logging.FieldErrorHint, "waiting out the cooldown before retrying"),
				logging.String(logging.FieldImpact, "acquisition paused"))
			p.reporter.RateLimited(ctx, item, wait)
		default:
			lastErr = outcome.Err
			wait = p.opts.TransientDelay
			logging.WarnWithContext(logger, "acquisition attempt failed", "acquire_transient_failure",
				logging.Int("attempt", attempt),
				logging.Error(outcome.Err),
				logging.String(logging.FieldErrorHint, "retrying after a short delay"),
				logging.String(logging.FieldImpact, "clip delayed"))
		}

		if attempt == p.opts.MaxAttempts {
			break
		}
		retries++
		if err := p.opts.Sleep(ctx, wait); err != nil {
			return false, retries, err
		}
	}

	logging.ErrorWithContext(logger, "clip acquisition failed", "acquire_entry_failed",
		logging.Int("attempts", p.opts.MaxAttempts),
		logging.Error(lastErr),
		logging.String(logging.FieldErrorHint, "the clip stays uncached and is retried on the next run"))
	return false, retries, nil
}

func (p *Pipeline) discard(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	if outcome.Discard == nil {
		return
	}
	if err := outcome.Discard(ctx); err != nil {
		logger.Debug("discard acquisition artifact failed",
			logging.String(logging.FieldEventType, "acquire_discard_failed"),
			logging.Error(err))
	}
}

func (p *Pipeline) pace(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// The deadline falls inside the pacing window; wait it out.
		return p.opts.Sleep(ctx, p.opts.InterItemDelay)
	}
	return nil
}

// stop handles cancellation: the cache is still persisted so progress
// survives a shutdown.
func (p *Pipeline) stop(ctx context.Context, logger *slog.Logger, summary Summary, cause error) (Summary, error) {
	summary.Status = StatusCancelled
	summary.FinishedAt = p.opts.Now()
	err := cause
	if saveErr := p.store.Save(p.cache.Snapshot()); saveErr != nil {
		err = errors.Join(cause, fmt.Errorf("save handle cache: %w", saveErr))
	}
	logging.WarnWithContext(logger, "acquisition cancelled", "acquire_cancelled",
		logging.Int("uploaded", summary.Uploaded),
		logging.Int("skipped", summary.Skipped),
		logging.Int("errors", summary.Errors),
		logging.String(logging.FieldErrorHint, "run the upload again to resume"),
		logging.String(logging.FieldImpact, "remaining clips were not uploaded"))
	p.reporter.Finished(context.WithoutCancel(ctx), summary)
	return summary, err
}

func (p *Pipeline) abort(ctx context.Context, logger *slog.Logger, summary Summary, err error) (Summary, error) {
	summary.Status = StatusAborted
	summary.FinishedAt = p.opts.Now()
	logging.ErrorWithContext(logger, "acquisition aborted", "acquire_aborted",
		logging.Error(err),
		logging.Alert("handle_cache_unwritable"),
		logging.String(logging.FieldErrorHint, "check free space and permissions for the handle cache file"))
	p.reporter.Finished(context.WithoutCancel(ctx), summary)
	return summary, err
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
