// Package extraction reduces worker progress streams into display-ready
// state.
//
// The orchestrator tracks one logical extraction flow at a time: its mode
// (single file or batch), the mutually-exclusive option toggles, per-file
// progress entries for batch runs, and a single overall percentage and
// status line. Events may arrive in any order and tagged with any file
// index; reduction keys purely on those tags and never assumes arrival
// order matches file-start order. Callers must not start a new run while
// one is in flight; the orchestrator does not police that itself.
package extraction
