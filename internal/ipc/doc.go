// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. The
// server is written against the Subsystem interface rather than a concrete
// daemon, so any presentation layer can be served from the same surface;
// the client decorates calls with a dial timeout so CLI commands fail fast
// when the daemon is offline.
package ipc
