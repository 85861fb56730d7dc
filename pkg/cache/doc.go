// Package cache persists per-channel scan state between runs.
//
// Each channel ID maps to an Entry holding the resolved uploads playlist
// handle, the last upload timestamp, and when the channel was last
// checked. Freshness is a property of the reader, not the entry: a scan
// decides with Entry.Fresh against its own TTL, so different callers can
// apply different TTLs to the same data.
//
// Stale entries are deliberately kept readable. The uploads playlist
// handle is assumed stable over a channel's lifetime, so a re-fetch of a
// stale channel reuses the cached handle and skips the batch resolution
// call entirely. That short-circuit is the main quota saver on repeat
// scans.
//
// Two implementations of Store are provided:
//
//   - Memory: in-process map, used by tests and Redis-less CLI runs
//   - Redis: shared, restart-surviving store with one MGET per snapshot
//     and one pipelined write-back per scan
//
// # Metrics
//
// The Redis store exports Prometheus metrics:
//
//   - yt_cache_hits_total - entries found
//   - yt_cache_misses_total - entries absent
//   - yt_cache_errors_total{operation} - store operation errors
package cache
