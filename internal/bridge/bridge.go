package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"tracklift/internal/logging"
	"tracklift/internal/progress"
)

// progressPrefix marks worker stdout lines carrying a progress payload.
const progressPrefix = "PROGRESS:"

// stderrCaptureLimit bounds the diagnostic buffer kept per call.
const stderrCaptureLimit = 16 * 1024

// Worker locates the worker executable. Script is optional; when set it is
// passed as the first argument (interpreter-style invocation), after any
// fixed Args.
type Worker struct {
	Binary string
	Script string
	Args   []string
}

func (w Worker) argv(function, encodedArgs, operationID string) []string {
	args := make([]string, 0, len(w.Args)+4)
	args = append(args, w.Args...)
	if w.Script != "" {
		args = append(args, w.Script)
	}
	return append(args, function, encodedArgs, operationID)
}

// Executor abstracts worker execution for testability. Run blocks until
// the process has exited and both streams are drained; a non-zero exit
// surfaces as *exec.ExitError.
type Executor interface {
	Run(ctx context.Context, operationID, binary string, args []string, onStdout, onStderr func(string)) error
}

// Option configures the bridge.
type Option func(*Bridge)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(b *Bridge) {
		if exec != nil {
			b.exec = exec
		}
	}
}

// Bridge ships calls to worker processes and demultiplexes their output.
type Bridge struct {
	worker Worker
	hub    *progress.Hub
	logger *slog.Logger
	exec   Executor
}

// New constructs a bridge for the given worker. Progress events are
// published on hub keyed by operation id.
func New(worker Worker, hub *progress.Hub, logger *slog.Logger, opts ...Option) (*Bridge, error) {
	if strings.TrimSpace(worker.Binary) == "" {
		return nil, errors.New("worker binary required")
	}
	if hub == nil {
		return nil, errors.New("progress hub required")
	}
	b := &Bridge{
		worker: worker,
		hub:    hub,
		logger: logging.WithComponent(logger, "bridge"),
		exec:   nil,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.exec == nil {
		return nil, errors.New("executor required")
	}
	return b, nil
}

// Hub returns the progress hub calls publish on.
func (b *Bridge) Hub() *progress.Hub {
	return b.hub
}

// Invocation is one in-flight worker call. The result becomes available
// once Done is closed; every failure mode resolves here.
type Invocation struct {
	OperationID string
	Function    string
	StartedAt   time.Time

	done   chan struct{}
	result json.RawMessage
	err    error
}

// Done is closed when the call has resolved.
func (inv *Invocation) Done() <-chan struct{} {
	return inv.done
}

// Result returns the call outcome. It must only be consulted after Done is
// closed; Wait covers the common case.
func (inv *Invocation) Result() (json.RawMessage, error) {
	select {
	case <-inv.done:
		return inv.result, inv.err
	default:
		return nil, errors.New("operation still running")
	}
}

// Wait blocks until the call resolves or ctx expires.
func (inv *Invocation) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-inv.done:
		return inv.result, inv.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (inv *Invocation) resolve(result json.RawMessage, err error) {
	inv.result = result
	inv.err = err
	close(inv.done)
}

// Start launches a worker call and returns immediately. An empty
// operationID is replaced with a generated one. Start never fails
// synchronously; serialization and spawn problems resolve through the
// returned invocation.
func (b *Bridge) Start(ctx context.Context, function string, args any, operationID string) *Invocation {
	if operationID == "" {
		operationID = uuid.NewString()
	}
	inv := &Invocation{
		OperationID: operationID,
		Function:    function,
		StartedAt:   time.Now().UTC(),
		done:        make(chan struct{}),
	}

	encoded, err := encodeArgs(args)
	if err != nil {
		inv.resolve(nil, fmt.Errorf("encode arguments for %s: %w", function, err))
		return inv
	}

	go b.run(ctx, inv, encoded)
	return inv
}

// Call is Start followed by Wait.
func (b *Bridge) Call(ctx context.Context, function string, args any, operationID string) (json.RawMessage, error) {
	return b.Start(ctx, function, args, operationID).Wait(ctx)
}

func (b *Bridge) run(ctx context.Context, inv *Invocation, encodedArgs string) {
	logger := b.logger.With(
		logging.String(logging.FieldOperationID, inv.OperationID),
		logging.String(logging.FieldFunction, inv.Function),
	)
	sampler := logging.NewProgressSampler(0)

	var body []string
	stderr := newCappedBuffer(stderrCaptureLimit)

	onStdout := func(line string) {
		trimmed := strings.TrimSpace(line)
		if payload, ok := strings.CutPrefix(trimmed, progressPrefix); ok {
			b.publishProgress(logger, sampler, inv.OperationID, payload)
			return
		}
		if trimmed == "" {
			return
		}
		body = append(body, line)
	}
	onStderr := func(line string) {
		stderr.appendLine(line)
	}

	argv := b.worker.argv(inv.Function, encodedArgs, inv.OperationID)
	logger.Debug("worker call starting", logging.Int("argv_len", len(argv)))

	runErr := b.exec.Run(ctx, inv.OperationID, b.worker.Binary, argv, onStdout, onStderr)
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			err := &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
			logger.Warn("worker call failed", logging.Int("exit_code", err.Code), logging.Error(err))
			inv.resolve(nil, err)
			return
		}
		err := &StartError{Err: runErr}
		logger.Warn("worker call failed to start", logging.Error(runErr))
		inv.resolve(nil, err)
		return
	}

	resultBody := strings.TrimSpace(strings.Join(body, "\n"))
	result, err := parseResult(resultBody)
	if err != nil {
		logger.Warn("worker result unparsable", logging.Error(err))
		inv.resolve(nil, &ResultParseError{Body: resultBody, Err: err})
		return
	}
	logger.Debug("worker call resolved", logging.Int("result_bytes", len(result)))
	inv.resolve(result, nil)
}

// publishProgress parses one sentinel line and hands it to the hub.
// Malformed payloads are logged and skipped; they never fail the call.
func (b *Bridge) publishProgress(logger *slog.Logger, sampler *logging.ProgressSampler, operationID, payload string) {
	event, err := progress.Decode([]byte(payload))
	if err != nil {
		logger.Warn("progress line skipped", logging.Error(err))
		return
	}
	if event.OperationID == "" {
		event.OperationID = operationID
	}
	if sampler.ShouldLog(float64(event.Percent()), progressLabel(event)) {
		logger.Debug("worker progress",
			logging.Int("percent", event.Percent()),
			logging.String("label", progressLabel(event)),
		)
	}
	b.hub.Publish(operationID, event)
}

func progressLabel(event progress.Event) string {
	switch event.Kind {
	case progress.KindPositional:
		if event.Positional != nil {
			return event.Positional.TrackType
		}
	case progress.KindKeyed:
		if event.Keyed != nil {
			if event.Keyed.Status != "" {
				return event.Keyed.Status
			}
			return event.Keyed.Description
		}
	}
	return ""
}

// encodeArgs serializes call arguments, wrapping non-sequence values in a
// single-element array so the worker always receives a uniform shape.
func encodeArgs(args any) (string, error) {
	if args == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	if len(raw) > 0 && raw[0] == '[' {
		return string(raw), nil
	}
	return "[" + string(raw) + "]", nil
}

// parseResult requires the accumulated body to be exactly one JSON value.
func parseResult(body string) (json.RawMessage, error) {
	if body == "" {
		return nil, errors.New("empty result body")
	}
	dec := json.NewDecoder(strings.NewReader(body))
	var result json.RawMessage
	if err := dec.Decode(&result); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after result value")
	}
	return result, nil
}

type cappedBuffer struct {
	limit     int
	data      []byte
	truncated bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) appendLine(line string) {
	if b.truncated {
		return
	}
	remaining := b.limit - len(b.data)
	if remaining <= 0 {
		b.truncated = true
		return
	}
	if len(b.data) > 0 {
		b.data = append(b.data, '\n')
		remaining--
	}
	if len(line) > remaining {
		b.data = append(b.data, line[:remaining]...)
		b.truncated = true
		return
	}
	b.data = append(b.data, line...)
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return string(b.data) + "\n... (truncated)"
	}
	return string(b.data)
}
