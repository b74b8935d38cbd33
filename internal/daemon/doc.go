// Package daemon hosts long-running extraction operations behind the IPC
// surface.
//
// The daemon owns the process supervisor, progress hub, and journal store,
// enforces single-instance execution with a lock file, and runs at most one
// submitted extraction at a time. Analyze and find calls are served
// synchronously; extract and batch submissions run in the background with
// their progress snapshots available to pollers.
package daemon
