// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs for
// session control, status, export, pattern inspection, and notification
// testing. The server embeds the pipeline coordinator while the client keeps
// a short dial timeout so CLI commands fail fast when the daemon is offline.
package ipc
