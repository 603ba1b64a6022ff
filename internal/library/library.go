package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"voicebot/internal/acquire"
	"voicebot/internal/catalog"
	"voicebot/internal/config"
	"voicebot/internal/handlecache"
	"voicebot/internal/logging"
	"voicebot/internal/responder"
	"voicebot/internal/runlog"
	"voicebot/internal/search"
)

// ErrAcquisitionRunning is returned when an acquisition is requested while
// another one is still in progress.
var ErrAcquisitionRunning = errors.New("acquisition already running")

// Library is the explicit application context.
type Library struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *handlecache.Store
	cache  *handlecache.Cache
	runs   *runlog.Store

	mu        sync.RWMutex
	catalog   *catalog.Catalog
	index     *search.Index
	responder *responder.Responder

	acquiring atomic.Bool
	lastMu    sync.Mutex
	last      *acquire.Summary
}

// Open builds the catalog, loads the handle cache and opens the run ledger.
func Open(cfg *config.Config, logger *slog.Logger) (*Library, error) {
	if cfg == nil {
		return nil, errors.New("library: config is required")
	}
	logger = logging.NewComponentLogger(logger, "library")

	store := handlecache.NewStore(cfg.Paths.HandleCache)
	handles, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load handle cache: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	runs, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	lib := &Library{
		cfg:    cfg,
		logger: logger,
		store:  store,
		cache:  handlecache.NewCache(handles),
		runs:   runs,
	}
	if err := lib.Rescan(); err != nil {
		_ = runs.Close()
		return nil, err
	}
	return lib, nil
}

// Close releases the run ledger.
func (l *Library) Close() error {
	if l == nil {
		return nil
	}
	return l.runs.Close()
}

// Config returns the configuration the library was opened with.
func (l *Library) Config() *config.Config { return l.cfg }

// Rescan rebuilds the catalog and index from disk and swaps them in.
func (l *Library) Rescan() error {
	cat, err := catalog.Build(l.cfg.Paths.AudioDir)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	index := search.NewIndex(cat.Entries()).WithMinScore(l.cfg.Search.MinScore)
	resp := responder.New(index, l.cache, responder.Options{
		SearchLimit: l.cfg.Search.Limit,
		MaxResults:  l.cfg.Search.MaxResults,
		EmptyCache:  l.cfg.EmptyCacheTime(),
		ResultCache: l.cfg.ResultCacheTime(),
	})

	l.mu.Lock()
	l.catalog = cat
	l.index = index
	l.responder = resp
	l.mu.Unlock()

	l.logger.Info("catalog loaded",
		logging.String(logging.FieldEventType, "catalog_loaded"),
		logging.String("root", cat.Root()),
		logging.Int("clips", cat.Len()),
		logging.Int("handles", l.cache.Len()))
	return nil
}

// Catalog returns the current catalog snapshot.
func (l *Library) Catalog() *catalog.Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.catalog
}

// Index returns the current search index.
func (l *Library) Index() *search.Index {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index
}

// Responder returns the responder bound to the current index.
func (l *Library) Responder() *responder.Responder {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.responder
}

// Respond answers an inline query against the current index.
func (l *Library) Respond(query string) responder.Response {
	return l.Responder().Respond(query)
}

// Handles returns the shared handle cache.
func (l *Library) Handles() *handlecache.Cache { return l.cache }

// Runs returns the run ledger.
func (l *Library) Runs() *runlog.Store { return l.runs }

// CategoryStats counts clips in one top-level category.
type CategoryStats struct {
	Name   string
	Total  int
	Cached int
}

// Stats aggregates catalog and cache counts.
type Stats struct {
	Clips      int
	Handles    int
	Cached     int
	Categories []CategoryStats
}

// Stats returns totals and per-category counts. Handles counts every cached
// entry, Cached only those that still exist in the catalog.
func (l *Library) Stats() Stats {
	cat := l.Catalog()
	byName := map[string]*CategoryStats{}
	stats := Stats{Clips: cat.Len(), Handles: l.cache.Len()}
	for _, entry := range cat.Entries() {
		name := catalog.Category(entry.Identifier)
		cs, ok := byName[name]
		if !ok {
			cs = &CategoryStats{Name: name}
			byName[name] = cs
		}
		cs.Total++
		if l.cache.Has(entry.Identifier) {
			cs.Cached++
			stats.Cached++
		}
	}
	for _, cs := range byName {
		stats.Categories = append(stats.Categories, *cs)
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		return stats.Categories[i].Name < stats.Categories[j].Name
	})
	return stats
}

// Pipeline builds an acquisition pipeline over the current catalog.
func (l *Library) Pipeline(transport acquire.Transport, reporter acquire.Reporter) *acquire.Pipeline {
	return acquire.New(l.Catalog(), l.cache, l.store, transport, reporter, l.pipelineOptions())
}

func (l *Library) pipelineOptions() acquire.Options {
	return acquire.Options{
		MaxAttempts:     l.cfg.Acquisition.MaxAttempts,
		CheckpointEvery: l.cfg.Acquisition.CheckpointEvery,
		InterItemDelay:  l.cfg.InterItemDelay(),
		RateLimitMargin: l.cfg.RateLimitMargin(),
		TransientDelay:  l.cfg.TransientDelay(),
		Logger:          l.logger,
	}
}

// Acquiring reports whether an acquisition is in progress.
func (l *Library) Acquiring() bool { return l.acquiring.Load() }

// LastRun returns the summary of the most recent run in this process.
func (l *Library) LastRun() (acquire.Summary, bool) {
	l.lastMu.Lock()
	defer l.lastMu.Unlock()
	if l.last == nil {
		return acquire.Summary{}, false
	}
	return *l.last, true
}

// Acquire runs the pipeline and records the result in the run ledger. source
// names the entrypoint that started the run. Only one acquisition may run at a
// time; a second call returns ErrAcquisitionRunning.
func (l *Library) Acquire(ctx context.Context, transport acquire.Transport, reporter acquire.Reporter, source string) (acquire.Summary, error) {
	if !l.acquiring.CompareAndSwap(false, true) {
		return acquire.Summary{}, ErrAcquisitionRunning
	}
	defer l.acquiring.Store(false)

	summary, runErr := l.Pipeline(transport, reporter).Run(ctx)

	l.lastMu.Lock()
	l.last = &summary
	l.lastMu.Unlock()

	run := runlog.Run{
		ID:         summary.RunID,
		Source:     source,
		Status:     string(summary.Status),
		Total:      summary.Total,
		Pending:    summary.Pending,
		Uploaded:   summary.Uploaded,
		Skipped:    summary.Skipped,
		Errors:     summary.Errors,
		Retries:    summary.Retries,
		Failed:     summary.Failed,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := l.runs.Record(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(l.logger, "failed to record acquisition run", "runlog_record_failed",
			logging.String(logging.FieldRunID, summary.RunID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the state directory"),
			logging.String(logging.FieldImpact, "run history will be incomplete"))
	}
	return summary, runErr
}
