// Package supervisor owns the registry of live worker processes.
//
// Each worker is registered under its operation id for the duration of its
// life: Spawn starts the process in its own process group, streams both
// standard pipes line-by-line to caller callbacks, and deregisters the
// entry when the process exits naturally. Terminate and TerminateAll cover
// hard cancellation and shutdown; there is no graceful stop protocol.
package supervisor
