package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"tracklift/internal/bridge"
	"tracklift/internal/config"
	"tracklift/internal/deps"
	"tracklift/internal/extraction"
	"tracklift/internal/journal"
	"tracklift/internal/logging"
	"tracklift/internal/progress"
	"tracklift/internal/services/extractor"
	"tracklift/internal/supervisor"
)

// ErrOperationActive is returned when a submission arrives while another
// submitted operation is still running.
var ErrOperationActive = errors.New("an operation is already running")

// Daemon coordinates worker operations and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *journal.Store
	sup    *supervisor.Supervisor
	hub    *progress.Hub

	lockPath string
	lock     *flock.Flock
	logPath  string

	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	active *operationRun
}

// operationRun tracks one submitted extraction from launch to resolution.
type operationRun struct {
	operationID string
	kind        journal.Kind
	orch        *extraction.Orchestrator
	done        chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	LockPath      string
	JournalDBPath string
	Stats         journal.Stats
	Active        *extraction.Snapshot
	Dependencies  []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *journal.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and journal store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		sup:      supervisor.New(logger),
		hub:      progress.NewHub(),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		logPath:  cfg.Paths.LogDir,
		stopped:  make(chan struct{}),
	}, nil
}

// Start acquires the daemon lock and marks the daemon as running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tracklift daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop marks the daemon stopped and releases the lock. A submitted
// operation that is still running keeps its worker; use Close for a hard
// shutdown.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.stopOnce.Do(func() { close(d.stopped) })
	d.logger.Info("daemon stopped")
}

// Stopped is closed once Stop has run, so hosting loops can exit on an
// IPC stop request as well as on a signal.
func (d *Daemon) Stopped() <-chan struct{} {
	return d.stopped
}

// Close force-terminates all live workers and releases resources.
func (d *Daemon) Close() error {
	if killed := d.sup.TerminateAll(); killed > 0 {
		d.logger.Warn("terminated live workers on shutdown", logging.Int("count", killed))
	}
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start has succeeded.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the daemon lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("journal stats unavailable", logging.Error(err))
	}
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		LockPath:      d.lockPath,
		JournalDBPath: d.store.Path(),
		Stats:         stats,
		Dependencies:  deps.WorkerStatus(d.cfg),
	}
	d.mu.Lock()
	if d.active != nil {
		snap := d.active.orch.Snapshot()
		status.Active = &snap
	}
	d.mu.Unlock()
	return status
}

// newClient builds the worker-call surface for one operation. Resolution
// repeats per call so worker installs and upgrades take effect without a
// daemon restart.
func (d *Daemon) newClient() (*extractor.Client, error) {
	worker, err := deps.ResolveWorker(d.cfg)
	if err != nil {
		return nil, err
	}
	br, err := bridge.New(worker, d.hub, d.logger, bridge.WithExecutor(bridge.NewSupervisorExecutor(d.sup)))
	if err != nil {
		return nil, err
	}
	return extractor.New(br, d.logger, extractor.WithProbe(deps.WorkerProbe(d.cfg))), nil
}
