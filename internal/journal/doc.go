// Package journal persists operation history in SQLite.
//
// Every worker operation the CLI or daemon starts gets a row recording its
// kind, status, inputs, progress counters, and final result. The status and
// history commands read it after the fact, so rows outlive the process that
// created them.
package journal
