package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"voicebot/internal/library"
	"voicebot/internal/logging"
)

// ErrAlreadyRunning is returned when another voicebot process holds the lock.
var ErrAlreadyRunning = errors.New("another voicebot instance is already running")

// Runner is the long-running update loop supervised by the daemon.
type Runner interface {
	Run(ctx context.Context) error
}

// Daemon coordinates the bot loop and the health endpoint and enforces
// single-instance execution.
type Daemon struct {
	lib    *library.Library
	bot    Runner
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock
	health   *healthServer

	running atomic.Bool

	addrMu sync.Mutex
	addr   net.Addr
}

// New constructs a daemon around lib and bot.
func New(lib *library.Library, bot Runner, logger *slog.Logger) (*Daemon, error) {
	if lib == nil || bot == nil {
		return nil, errors.New("daemon requires library and bot")
	}
	cfg := lib.Config()
	lockPath := cfg.LockPath()
	logger = logging.NewComponentLogger(logger, "daemon")
	return &Daemon{
		lib:      lib,
		bot:      bot,
		logger:   logger,
		lockPath: lockPath,
		health:   newHealthServer(strings.TrimSpace(cfg.Health.Bind), lib, logger),
	}, nil
}

// Run acquires the instance lock, then runs the bot loop and the health
// server until ctx ends or either of them fails. A cancelled context is a
// clean shutdown and yields nil.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	if err := d.acquireLock(); err != nil {
		return err
	}
	defer d.releaseLock()

	listener, err := d.health.listen()
	if err != nil {
		return err
	}
	if listener != nil {
		d.setAddr(listener.Addr())
		defer d.setAddr(nil)
	}

	d.logger.Info("voicebot daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Int("clips", d.lib.Catalog().Len()),
		logging.Int("handles", d.lib.Handles().Len()))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := d.bot.Run(groupCtx); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		return nil
	})
	if listener != nil {
		group.Go(func() error {
			return d.health.serve(groupCtx, listener)
		})
	}

	err = group.Wait()
	if err != nil && ctx.Err() == nil {
		logging.ErrorWithContext(d.logger, "voicebot daemon stopped with error", "daemon_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the log for the failing component, then restart voicebot"))
		return err
	}
	d.logger.Info("voicebot daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	return nil
}

// Running reports whether Run is active.
func (d *Daemon) Running() bool { return d.running.Load() }

// HealthAddr returns the address the health server listens on, or nil when
// it is disabled or not started.
func (d *Daemon) HealthAddr() net.Addr {
	d.addrMu.Lock()
	defer d.addrMu.Unlock()
	return d.addr
}

// LockPath returns the single-instance lock file.
func (d *Daemon) LockPath() string { return d.lockPath }

func (d *Daemon) setAddr(addr net.Addr) {
	d.addrMu.Lock()
	d.addr = addr
	d.addrMu.Unlock()
}

func (d *Daemon) acquireLock() error {
	lock, err := AcquireLock(d.lockPath)
	if err != nil {
		return err
	}
	d.lock = lock
	return nil
}

// AcquireLock takes the single-instance lock at path without blocking. Any
// process that writes the handle cache holds it for as long as it runs, so
// serve and a CLI upload never save over each other. It returns
// ErrAlreadyRunning when another process holds the lock.
func AcquireLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}
