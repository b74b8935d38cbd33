// Package main hosts the Tracklift CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the daemon: track analysis, extraction submission, batch
// processing, progress polling, journal history, and configuration
// scaffolding. It centralizes configuration resolution and socket
// discovery so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags
// here.
package main
