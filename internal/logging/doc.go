// Package logging assembles the structured slog loggers used across
// tracklift components.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes attribute helpers so bridge and daemon code
// tag log lines with operation ids and worker functions consistently. The
// package also provides a no-op logger for tests and wiring code that
// cannot fail, and a sampler that keeps worker progress streams from
// flooding the logs.
package logging
