package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"tracklift/internal/logging"
)

const (
	scannerInitialBuffer = 64 * 1024
	scannerMaxBuffer     = 1024 * 1024
	terminateReapWindow  = 2 * time.Second
)

// Spec describes one worker process launch.
type Spec struct {
	Path     string
	Args     []string
	Dir      string
	Env      []string
	OnStdout func(string)
	OnStderr func(string)
}

// Handle tracks one live worker process.
type Handle struct {
	operationID string
	pid         int

	done    chan struct{}
	waitErr error
}

// Wait blocks until the process has exited and both output streams are
// drained. A non-zero exit surfaces as *exec.ExitError.
func (h *Handle) Wait() error {
	<-h.done
	return h.waitErr
}

// Done is closed once the process has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// PID returns the worker's process id.
func (h *Handle) PID() int {
	return h.pid
}

// OperationID returns the registry key the process runs under.
func (h *Handle) OperationID() string {
	return h.operationID
}

// Supervisor registers worker processes by operation id and force-kills
// them on demand. The registry is the only shared state and is owned
// exclusively by the supervisor.
type Supervisor struct {
	logger *slog.Logger

	mu    sync.Mutex
	procs map[string]*process
}

type process struct {
	handle *Handle
	cmd    *exec.Cmd
}

// New constructs a supervisor. A nil logger disables logging.
func New(logger *slog.Logger) *Supervisor {
	return &Supervisor{
		logger: logging.WithComponent(logger, "supervisor"),
		procs:  make(map[string]*process),
	}
}

// Spawn starts a worker and registers it under operationID. Stdout and
// stderr are streamed line-by-line to the Spec's callbacks from dedicated
// goroutines. The entry is removed automatically when the process exits,
// whatever the exit code. Start failures return synchronously; the id must
// not already be registered.
func (s *Supervisor) Spawn(ctx context.Context, operationID string, spec Spec) (*Handle, error) {
	if operationID == "" {
		return nil, errors.New("operation id required")
	}
	if spec.Path == "" {
		return nil, errors.New("worker path required")
	}

	// Reserve the id before starting anything so a concurrent Spawn with the
	// same id cannot slip past the check and replace the registration.
	entry := &process{}
	s.mu.Lock()
	if _, exists := s.procs[operationID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("operation %s already has a live worker", operationID)
	}
	s.procs[operationID] = entry
	s.mu.Unlock()

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...) //nolint:gosec
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	// Workers run in their own process group so a kill reaches interpreter
	// children as well.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killGroup(cmd)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.deregister(operationID, entry)
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.deregister(operationID, entry)
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		s.deregister(operationID, entry)
		return nil, fmt.Errorf("start worker: %w", err)
	}

	handle := &Handle{
		operationID: operationID,
		pid:         cmd.Process.Pid,
		done:        make(chan struct{}),
	}

	s.mu.Lock()
	entry.handle = handle
	entry.cmd = cmd
	s.mu.Unlock()

	s.logger.Debug("worker spawned",
		logging.String(logging.FieldOperationID, operationID),
		logging.Int("pid", handle.pid),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(&wg, stdout, spec.OnStdout)
	go scanLines(&wg, stderr, spec.OnStderr)

	go func() {
		wg.Wait()
		handle.waitErr = cmd.Wait()
		s.deregister(operationID, entry)
		close(handle.done)
		if handle.waitErr != nil {
			s.logger.Debug("worker exited with error",
				logging.String(logging.FieldOperationID, operationID),
				logging.Error(handle.waitErr),
			)
		}
	}()

	return handle, nil
}

// Terminate force-kills the worker registered under operationID and removes
// it from the registry. It reports whether a worker was found; an unknown
// id is a no-op, not an error.
func (s *Supervisor) Terminate(operationID string) bool {
	s.mu.Lock()
	entry, ok := s.procs[operationID]
	if ok && entry.cmd == nil {
		// Reservation for a spawn still in flight; nothing to kill yet.
		ok = false
	}
	if ok {
		delete(s.procs, operationID)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}

	if err := killGroup(entry.cmd); err != nil {
		s.logger.Warn("worker kill failed",
			logging.String(logging.FieldOperationID, operationID),
			logging.Error(err),
		)
	} else {
		s.logger.Info("worker terminated",
			logging.String(logging.FieldOperationID, operationID),
		)
	}
	return true
}

// TerminateAll force-kills every registered worker, waits briefly for each
// to be reaped, and returns the number terminated. Intended for shutdown.
func (s *Supervisor) TerminateAll() int {
	s.mu.Lock()
	entries := make([]*process, 0, len(s.procs))
	for id, entry := range s.procs {
		if entry.cmd == nil {
			continue
		}
		entries = append(entries, entry)
		delete(s.procs, id)
	}
	s.mu.Unlock()

	for _, entry := range entries {
		_ = killGroup(entry.cmd)
	}
	deadline := time.After(terminateReapWindow)
	for _, entry := range entries {
		select {
		case <-entry.handle.done:
		case <-deadline:
			return len(entries)
		}
	}
	return len(entries)
}

// ActiveCount reports the number of registered workers.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// ActiveIDs lists the operation ids with a registered worker.
func (s *Supervisor) ActiveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	return ids
}

func (s *Supervisor) deregister(operationID string, entry *process) {
	s.mu.Lock()
	if current, ok := s.procs[operationID]; ok && current == entry {
		delete(s.procs, operationID)
	}
	s.mu.Unlock()
}

func killGroup(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, unix.SIGKILL); err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return cmd.Process.Kill()
}

func scanLines(wg *sync.WaitGroup, r io.Reader, forward func(string)) {
	defer wg.Done()
	scanner := newLineScanner(r)
	for scanner.Scan() {
		if forward != nil {
			forward(scanner.Text())
		}
	}
}
