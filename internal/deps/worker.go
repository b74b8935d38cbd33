package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"tracklift/internal/bridge"
	"tracklift/internal/config"
)

// Environment overrides for worker resolution; handy for development builds
// of the worker without touching the config file.
const (
	EnvWorkerBinary = "TRACKLIFT_WORKER"
	EnvWorkerScript = "TRACKLIFT_WORKER_SCRIPT"
)

// ResolveWorker locates the worker executable described by the config,
// honoring environment overrides. The returned Worker carries an absolute
// binary path.
func ResolveWorker(cfg *config.Config) (bridge.Worker, error) {
	binary := strings.TrimSpace(os.Getenv(EnvWorkerBinary))
	if binary == "" {
		binary = cfg.Worker.Binary
	}
	script := strings.TrimSpace(os.Getenv(EnvWorkerScript))
	if script == "" {
		script = cfg.Worker.Script
	}

	resolved, err := exec.LookPath(binary)
	if err != nil {
		return bridge.Worker{}, fmt.Errorf("worker binary %q: %w", binary, err)
	}
	if err := unix.Access(resolved, unix.X_OK); err != nil {
		return bridge.Worker{}, fmt.Errorf("worker binary %q not executable: %w", resolved, err)
	}

	if script != "" {
		expanded, err := config.ExpandPath(script)
		if err != nil {
			return bridge.Worker{}, fmt.Errorf("worker script: %w", err)
		}
		if err := unix.Access(expanded, unix.R_OK); err != nil {
			return bridge.Worker{}, fmt.Errorf("worker script %q not readable: %w", expanded, err)
		}
		script = expanded
	}

	return bridge.Worker{
		Binary: resolved,
		Script: script,
		Args:   append([]string(nil), cfg.Worker.Args...),
	}, nil
}

// WorkerProbe returns the availability check the extractor client runs
// before spawning. Resolution repeats per call so a worker installed after
// startup is picked up without a restart.
func WorkerProbe(cfg *config.Config) func() error {
	return func() error {
		_, err := ResolveWorker(cfg)
		return err
	}
}

// WorkerStatus reports worker availability for status output. The binary
// lookup runs as a CheckBinaries pass; access probing (execute/read bits,
// script expansion) layers on top only when the lookup succeeds.
func WorkerStatus(cfg *config.Config) []Status {
	binary := strings.TrimSpace(os.Getenv(EnvWorkerBinary))
	if binary == "" {
		binary = cfg.Worker.Binary
	}
	statuses := CheckBinaries([]Requirement{{
		Name:        "Worker",
		Command:     binary,
		Description: "Extraction worker executable",
	}})
	if !statuses[0].Available {
		return statuses
	}

	worker, err := ResolveWorker(cfg)
	if err != nil {
		statuses[0].Available = false
		statuses[0].Detail = err.Error()
		return statuses
	}
	statuses[0].Command = worker.Binary
	if worker.Script != "" {
		statuses = append(statuses, Status{
			Name:        "Worker script",
			Command:     worker.Script,
			Description: "Script run by the worker interpreter",
			Available:   true,
		})
	}
	return statuses
}
