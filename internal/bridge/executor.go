package bridge

import (
	"context"

	"tracklift/internal/supervisor"
)

// SupervisorExecutor runs worker calls through the process supervisor so
// every call is registered under its operation id and reachable by
// Terminate for the lifetime of the process.
type SupervisorExecutor struct {
	sup *supervisor.Supervisor
}

// NewSupervisorExecutor wraps a supervisor as the bridge's executor.
func NewSupervisorExecutor(sup *supervisor.Supervisor) *SupervisorExecutor {
	return &SupervisorExecutor{sup: sup}
}

// Run spawns the worker and blocks until it exits and both streams drain.
func (e *SupervisorExecutor) Run(ctx context.Context, operationID, binary string, args []string, onStdout, onStderr func(string)) error {
	handle, err := e.sup.Spawn(ctx, operationID, supervisor.Spec{
		Path:     binary,
		Args:     args,
		OnStdout: onStdout,
		OnStderr: onStderr,
	})
	if err != nil {
		return err
	}
	return handle.Wait()
}

var _ Executor = (*SupervisorExecutor)(nil)
