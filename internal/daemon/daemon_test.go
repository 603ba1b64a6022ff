package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"voicebot/internal/library"
	"voicebot/internal/runlog"
	"voicebot/internal/testsupport"
)

type blockingBot struct {
	started chan struct{}
	err     error
}

func newBlockingBot(err error) *blockingBot {
	return &blockingBot{started: make(chan struct{}), err: err}
}

func (b *blockingBot) Run(ctx context.Context) error {
	close(b.started)
	if b.err != nil {
		return b.err
	}
	<-ctx.Done()
	return nil
}

func openLibrary(t *testing.T) *library.Library {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithClips(
		"protoss/zealot/attack.ogg",
		"terran/marine/fire.ogg",
	))
	testsupport.WriteHandleCache(t, cfg.Paths.HandleCache, map[string]string{
		"protoss/zealot/attack.ogg": "H1",
	})
	lib, err := library.Open(cfg, nil)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func waitStarted(t *testing.T, bot *blockingBot) {
	t.Helper()
	select {
	case <-bot.started:
	case <-time.After(5 * time.Second):
		t.Fatal("bot was not started")
	}
}

func TestHealthReportsLibraryState(t *testing.T) {
	lib := openLibrary(t)
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := lib.Runs().Record(context.Background(), runlog.Run{
		ID:         "run-1",
		Source:     "cli",
		Status:     "completed",
		Uploaded:   4,
		Skipped:    1,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	srv := newHealthServer("", lib, nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Clips != 2 || resp.Handles != 1 || resp.Cached != 1 || resp.Acquiring {
		t.Fatalf("unexpected health payload %+v", resp)
	}
	if resp.LastRun == nil || resp.LastRun.ID != "run-1" || resp.LastRun.Uploaded != 4 {
		t.Fatalf("unexpected last run %+v", resp.LastRun)
	}
	if !resp.LastRun.FinishedAt.Equal(started.Add(time.Minute)) {
		t.Fatalf("unexpected finished_at %v", resp.LastRun.FinishedAt)
	}
}

func TestHealthOmitsLastRunOnEmptyLedger(t *testing.T) {
	lib := openLibrary(t)
	srv := newHealthServer("", lib, nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := raw["last_run"]; ok {
		t.Fatalf("expected last_run to be omitted, got %v", raw)
	}
}

func TestHealthRejectsNonGet(t *testing.T) {
	lib := openLibrary(t)
	srv := newHealthServer("", lib, nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(nil, newBlockingBot(nil), nil); err == nil {
		t.Fatal("expected error without library")
	}
	if _, err := New(openLibrary(t), nil, nil); err == nil {
		t.Fatal("expected error without bot")
	}
}

func TestRunServesHealthUntilCancelled(t *testing.T) {
	lib := openLibrary(t)
	bot := newBlockingBot(nil)
	d, err := New(lib, bot, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	waitStarted(t, bot)

	if !d.Running() {
		t.Fatal("expected daemon to report running")
	}
	addr := d.HealthAddr()
	if addr == nil {
		t.Fatal("expected health server address")
	}
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	if err := d.Run(ctx); err == nil {
		t.Fatal("expected second Run to fail")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if d.Running() || d.HealthAddr() != nil {
		t.Fatal("expected daemon to be stopped")
	}

	lock := flock.New(d.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("expected lock to be released (ok=%v err=%v)", ok, err)
	}
	lock.Unlock()
}

func TestRunRefusesWhenLocked(t *testing.T) {
	lib := openLibrary(t)
	holder := flock.New(lib.Config().LockPath())
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock failed (ok=%v err=%v)", ok, err)
	}
	defer holder.Unlock()

	bot := newBlockingBot(nil)
	d, err := New(lib, bot, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	select {
	case <-bot.started:
		t.Fatal("bot must not start without the lock")
	default:
	}
}

func TestAcquireLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "voicebot.lock")
	first, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("first AcquireLock: %v", err)
	}
	if _, err := AcquireLock(path); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	second, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	_ = second.Unlock()
}

func TestRunReturnsBotFailure(t *testing.T) {
	lib := openLibrary(t)
	boom := errors.New("boom")
	d, err := New(lib, newBlockingBot(boom), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("expected bot error, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop after bot failure")
	}
}

func TestRunWithoutHealthBind(t *testing.T) {
	lib := openLibrary(t)
	lib.Config().Health.Bind = ""
	bot := newBlockingBot(nil)
	d, err := New(lib, bot, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	waitStarted(t, bot)
	if d.HealthAddr() != nil {
		t.Fatal("expected health server to be disabled")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
