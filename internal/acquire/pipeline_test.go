package acquire_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"voicebot/internal/acquire"
	"voicebot/internal/catalog"
	"voicebot/internal/handlecache"
)

type scriptedTransport struct {
	mu       sync.Mutex
	calls    map[string]int
	script   map[string][]acquire.Outcome
	fallback func(item acquire.Item, call int) acquire.Outcome
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{calls: map[string]int{}, script: map[string][]acquire.Outcome{}}
}

func (s *scriptedTransport) Acquire(_ context.Context, item acquire.Item) acquire.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.calls[item.Identifier]
	s.calls[item.Identifier]++
	if outcomes, ok := s.script[item.Identifier]; ok && call < len(outcomes) {
		return outcomes[call]
	}
	if s.fallback != nil {
		return s.fallback(item, call)
	}
	return acquire.Succeeded("handle-"+item.Identifier, nil)
}

type recordingSaver struct {
	saves  []map[string]string
	err    error
	failAt int
}

func (r *recordingSaver) Save(m map[string]string) error {
	r.saves = append(r.saves, m)
	if r.err != nil && len(r.saves) >= r.failAt {
		return r.err
	}
	return nil
}

type recordingReporter struct {
	acquire.NopReporter
	progress    []acquire.Progress
	rateLimited []time.Duration
	finished    []acquire.Summary
	started     int
}

func (r *recordingReporter) Started(context.Context, string, int, int) { r.started++ }

func (r *recordingReporter) RateLimited(_ context.Context, _ acquire.Item, d time.Duration) {
	r.rateLimited = append(r.rateLimited, d)
}

func (r *recordingReporter) Progress(_ context.Context, p acquire.Progress) {
	r.progress = append(r.progress, p)
}

func (r *recordingReporter) Finished(_ context.Context, s acquire.Summary) {
	r.finished = append(r.finished, s)
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func testOptions(sleeper *sleepRecorder) acquire.Options {
	opts := acquire.DefaultOptions()
	opts.InterItemDelay = 0
	opts.Sleep = sleeper.Sleep
	return opts
}

func TestRunUploadsSingleEntry(t *testing.T) {
	cat := catalog.New(t.TempDir(), []string{"protoss/zealot/attack.ogg"})
	cache := handlecache.NewCache(nil)
	saver := &recordingSaver{}
	transport := newScriptedTransport()
	reporter := &recordingReporter{}

	summary, err := acquire.New(cat, cache, saver, transport, reporter, testOptions(&sleepRecorder{})).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.String() != "uploaded=1, skipped=0, errors=0" {
		t.Fatalf("unexpected summary %s", summary)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected exactly one cached handle, got %d", cache.Len())
	}
	if h, _ := cache.Get("protoss/zealot/attack.ogg"); h != "handle-protoss/zealot/attack.ogg" {
		t.Fatalf("unexpected handle %q", h)
	}
	if len(saver.saves) != 1 || len(saver.saves[0]) != 1 {
		t.Fatalf("expected one final save with one entry, got %v", saver.saves)
	}
	if summary.RunID == "" || summary.Status != acquire.StatusCompleted {
		t.Fatalf("unexpected run metadata %+v", summary)
	}
	if reporter.started != 1 || len(reporter.finished) != 1 {
		t.Fatalf("expected start and finish notifications, got %+v", reporter)
	}
}

func TestRunSkipsCachedEntries(t *testing.T) {
	cat := catalog.New(t.TempDir(), []string{"a.ogg", "b.ogg"})
	cache := handlecache.NewCache(map[string]string{"a.ogg": "existing"})
	transport := newScriptedTransport()

	summary, err := acquire.New(cat, cache, &recordingSaver{}, transport, nil, testOptions(&sleepRecorder{})).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if transport.calls["a.ogg"] != 0 {
		t.Fatalf("cached entry was re-acquired %d times", transport.calls["a.ogg"])
	}
	if summary.Skipped != 1 || summary.Uploaded != 1 || summary.Pending != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if h, _ := cache.Get("a.ogg"); h != "existing" {
		t.Fatalf("existing handle overwritten: %q", h)
	}
}

func TestRunSpacesEntryStartsByInterItemDelay(t *testing.T) {
	cat := catalog.New(t.TempDir(), []string{"a.ogg", "b.ogg", "c.ogg"})
	transport := newScriptedTransport()
	var (
		mu     sync.Mutex
		starts []time.Time
	)
	transport.fallback = func(item acquire.Item, _ int) acquire.Outcome {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		return acquire.Succeeded("h-"+item.Identifier, nil)
	}
	opts := testOptions(&sleepRecorder{})
	opts.InterItemDelay = 40 * time.Millisecond

	if _, err := acquire.New(cat, handlecache.NewCache(nil), &recordingSaver{}, transport, nil, opts).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(starts) != 3 {
		t.Fatalf("expected 3 transport calls, got %d", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < 35*time.Millisecond {
			t.Fatalf("entries %d and %d started %s apart", i-1, i, gap)
		}
	}
}

func TestRunGivesUpAfterThreeTransientFailures(t *testing.T) {
	cat := catalog.New(t.TempDir(), []string{"bad.ogg", "good.ogg"})
	cache := handlecache.NewCache(nil)
	transport := newScriptedTransport()
	transport.fallback = func(item acquire.Item, _ int) acquire.Outcome {
		if item.Identifier == "bad.ogg" {
			return acquire.Failed(errors.New("boom"))
		}
		return acquire.Succeeded("ok", nil)
	}
	sleeper := &sleepRecorder{}

	summary, err := acquire.New(cat, cache, &recordingSaver{}, transport, nil, testOptions(sleeper)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if transport.calls["bad.ogg"] != 3 {
		t.Fatalf("expected 3 attempts, got %d", transport.calls["bad.ogg"])
	}
	if cache.Has("bad.ogg") {
		t.Fatal("failed entry must stay out of the cache")
	}
	if summary.Errors != 1 || summary.Uploaded != 1 || summary.Retries != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Failed) != 1 || summary.Failed[0] != "bad.ogg" {
		t.Fatalf("unexpected failed list %v", summary.Failed)
	}
	if len(sleeper.waits) != 2 || sleeper.waits[0] != acquire.DefaultTransientDelay {
		t.Fatalf("expected two transient backoffs, got %v", sleeper.waits)
	}
}

func TestRunRateLimitWaitsCooldownPlusMarginAndConsumesAttempt(t *testing.T) {
	cat := catalog.New(t.TempDir(), []string{"clip.ogg"})
	cache := handlecache.NewCache(nil)
	transport := newScriptedTransport()
	transport.script["clip.ogg"] = []acquire.Outcome{
		acquire.RateLimitedFor(7*time.Second, errors.New("429")),
		acquire.RateLimitedFor(2*time.Second, errors.New("429")),
		acquire.Succeeded("h", nil),
	}
	sleeper := &sleepRecorder{}
	reporter := &recordingReporter{}

	summary, err := acquire.New(cat, cache, &recordingSaver{}, transport, reporter, testOptions(sleeper)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Uploaded != 1 || transport.calls["clip.ogg"] != 3 {
		t.Fatalf("expected success on third attempt, got %+v calls=%d", summary, transport.calls["clip.ogg"])
	}
	want := []time.Duration{8 * time.Second, 3 * time.Second}
	if len(sleeper.waits) != 2 || sleeper.waits[0] != want[0] || sleeper.waits[1] != want[1] {
		t.Fatalf("unexpected waits %v", sleeper.waits)
	}
	if len(reporter.rateLimited) != 2 {
		t.Fatalf("expected rate limit notifications, got %v", reporter.rateLimited)
	}
}

func TestRunRateLimitExhaustsBudget(t *testing.T) {
	cat := catalog.New(t.TempDir(), []string{"clip.ogg"})
	transport := newScriptedTransport()
	transport.fallback = func(acquire.Item, int) acquire.Outcome {
		return acquire.RateLimitedFor(time.Second, nil)
	}
	summary, err := acquire.New(cat, handlecache.NewCache(nil), &recordingSaver{}, transport, nil, testOptions(&sleepRecorder{})).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if transport.calls["clip.ogg"] != 3 || summary.Errors != 1 {
		t.Fatalf("expected budget of 3, got calls=%d summary=%+v", transport.calls["clip.ogg"], summary)
	}
}

func TestRunCheckpointsEveryTenSuccesses(t *testing.T) {
	ids := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		ids = append(ids, fmt.Sprintf("clip%02d.ogg", i))
	}
	cat := catalog.New(t.TempDir(), ids)
	saver := &recordingSaver{}
	reporter := &recordingReporter{}

	summary, err := acquire.New(cat, handlecache.NewCache(nil), saver, newScriptedTransport(), reporter, testOptions(&sleepRecorder{})).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Uploaded != 25 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(saver.saves) != 3 {
		t.Fatalf("expected 2 checkpoints and a final save, got %d", len(saver.saves))
	}
	if len(saver.saves[0]) != 10 || len(saver.saves[1]) != 20 || len(saver.saves[2]) != 25 {
		t.Fatalf("unexpected checkpoint sizes %d/%d/%d", len(saver.saves[0]), len(saver.saves[1]), len(saver.saves[2]))
	}
	if len(reporter.progress) != 2 || reporter.progress[1].Processed != 20 || reporter.progress[1].Uploaded != 20 {
		t.Fatalf("unexpected progress %+v", reporter.progress)
	}
}

func TestRunSavesEvenWithNothingToDo(t *testing.T) {
	saver := &recordingSaver{}
	summary, err := acquire.New(catalog.New(t.TempDir(), nil), handlecache.NewCache(nil), saver, newScriptedTransport(), nil, testOptions(&sleepRecorder{})).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(saver.saves) != 1 || summary.Total != 0 {
		t.Fatalf("expected a single final save, got %d saves", len(saver.saves))
	}
}

func TestRunDiscardsArtifactAfterCaching(t *testing.T) {
	cat := catalog.New(t.TempDir(), []string{"clip.ogg", "other.ogg"})
	cache := handlecache.NewCache(nil)
	var discarded []string
	transport := acquire.TransportFunc(func(_ context.Context, item acquire.Item) acquire.Outcome {
		return acquire.Succeeded("h", func(context.Context) error {
			if !cache.Has(item.Identifier) {
				t.Errorf("discard ran before %s was cached", item.Identifier)
			}
			discarded = append(discarded, item.Identifier)
			return errors.New("message already gone")
		})
	})

	summary, err := acquire.New(cat, cache, &recordingSaver{}, transport, nil, testOptions(&sleepRecorder{})).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Uploaded != 2 || len(discarded) != 2 {
		t.Fatalf("discard failures must not fail entries: %+v %v", summary, discarded)
	}
}

func TestRunPassesAbsolutePathToTransport(t *testing.T) {
	root := t.TempDir()
	cat := catalog.New(root, []string{"zerg/drone/gather.ogg"})
	var got acquire.Item
	transport := acquire.TransportFunc(func(_ context.Context, item acquire.Item) acquire.Outcome {
		got = item
		return acquire.Succeeded("h", nil)
	})
	if _, err := acquire.New(cat, handlecache.NewCache(nil), &recordingSaver{}, transport, nil, testOptions(&sleepRecorder{})).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Path != cat.Path("zerg/drone/gather.ogg") || got.Label != "[Zerg/Drone] gather" {
		t.Fatalf("unexpected item %+v", got)
	}
}

func TestRunAbortsWhenCheckpointFails(t *testing.T) {
	ids := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		ids = append(ids, fmt.Sprintf("clip%02d.ogg", i))
	}
	saver := &recordingSaver{err: errors.New("disk full"), failAt: 1}
	transport := newScriptedTransport()

	summary, err := acquire.New(catalog.New(t.TempDir(), ids), handlecache.NewCache(nil), saver, transport, nil, testOptions(&sleepRecorder{})).Run(context.Background())
	if err == nil {
		t.Fatal("expected checkpoint failure to abort the run")
	}
	if summary.Status != acquire.StatusAborted || summary.Uploaded != 10 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(transport.calls) != 10 {
		t.Fatalf("expected no acquisitions after abort, got %d", len(transport.calls))
	}
}

func TestRunCancellationPersistsCache(t *testing.T) {
	cat := catalog.New(t.TempDir(), []string{"a.ogg", "b.ogg", "c.ogg"})
	cache := handlecache.NewCache(nil)
	saver := &recordingSaver{}
	reporter := &recordingReporter{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := acquire.TransportFunc(func(_ context.Context, item acquire.Item) acquire.Outcome {
		if item.Identifier == "b.ogg" {
			cancel()
			return acquire.Failed(context.Canceled)
		}
		return acquire.Succeeded("h-"+item.Identifier, nil)
	})

	summary, err := acquire.New(cat, cache, saver, transport, reporter, testOptions(&sleepRecorder{})).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Status != acquire.StatusCancelled || summary.Uploaded != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(saver.saves) != 1 || saver.saves[0]["a.ogg"] != "h-a.ogg" {
		t.Fatalf("expected cache persisted on cancel, got %v", saver.saves)
	}
	if len(reporter.finished) != 1 {
		t.Fatalf("expected finish notification on cancel")
	}
}

func TestRunResumesFromPersistedCache(t *testing.T) {
	dir := t.TempDir()
	store := handlecache.NewStore(filepath.Join(dir, "file_id_cache.json"))
	cat := catalog.New(dir, []string{"a.ogg", "b.ogg"})

	first := newScriptedTransport()
	first.script["b.ogg"] = []acquire.Outcome{
		acquire.Failed(errors.New("x")), acquire.Failed(errors.New("x")), acquire.Failed(errors.New("x")),
	}
	if _, err := acquire.New(cat, handlecache.NewCache(nil), store, first, nil, testOptions(&sleepRecorder{})).Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second := newScriptedTransport()
	summary, err := acquire.New(cat, handlecache.NewCache(loaded), store, second, nil, testOptions(&sleepRecorder{})).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.calls["a.ogg"] != 0 || second.calls["b.ogg"] != 1 {
		t.Fatalf("expected only the failed clip retried, got %v", second.calls)
	}
	if summary.Skipped != 1 || summary.Uploaded != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
