// Package manager coordinates all print-subsystem work behind a single
// event loop. The loop goroutine is the only owner of shared state (latest
// health snapshot, in-flight flags, the pending driver search); blocking
// subprocess work runs on a small fixed worker pool and reports back over
// bounded result channels.
//
// Scheduling rules: periodic health probes coalesce, so a tick that arrives
// while a probe is outstanding is dropped and concurrent callers share one
// probe. Driver searches debounce, and a later request supersedes an earlier
// one that has not been dispatched yet. Installs deduplicate per queue name.
package manager
