// Package main hosts the Nudge CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon: session start/stop, status snapshots, session export,
// mined-pattern inspection, and notification tests. The `daemon` subcommand
// runs the long-lived monitor process itself. Configuration resolution and
// socket discovery are centralized so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
