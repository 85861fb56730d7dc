// Package scan orchestrates the channel freshness pipeline: cache
// snapshot, batched handle resolution, concurrency-bounded detail
// fetches, and aggregation into one status-tagged result map.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/yt-freshness-client/pkg/cache"
	"github.com/Sternrassler/yt-freshness-client/pkg/limiter"
	"github.com/Sternrassler/yt-freshness-client/pkg/ytapi"
)

// Defaults and bounds for Config.
const (
	DefaultThresholdDays = 365
	DefaultCacheTTLHours = 24
	DefaultConcurrency   = 6
	MaxConcurrency       = 20
)

// Config is the immutable per-run configuration. Zero fields take the
// package defaults.
type Config struct {
	// ThresholdDays is the staleness cutoff reported in every result.
	ThresholdDays int

	// CacheTTLHours is how long a cache entry counts as fresh.
	CacheTTLHours int

	// Concurrency bounds parallel detail fetches, clamped to
	// [1, MaxConcurrency].
	Concurrency int
}

// withDefaults fills unset fields and clamps concurrency.
func (c Config) withDefaults() Config {
	if c.ThresholdDays < 1 {
		c.ThresholdDays = DefaultThresholdDays
	}
	if c.CacheTTLHours < 1 {
		c.CacheTTLHours = DefaultCacheTTLHours
	}
	if c.Concurrency < 1 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Concurrency > MaxConcurrency {
		c.Concurrency = MaxConcurrency
	}
	return c
}

// API is the two-tier remote lookup the pipeline consumes: a batchable
// coarse call resolving channels to uploads playlist handles, and a
// per-handle detail call yielding the latest upload timestamp. Satisfied
// by *ytapi.Client.
type API interface {
	ChannelUploadPlaylists(ctx context.Context, channelIDs []string) (map[string]string, error)
	LatestUpload(ctx context.Context, playlistID string) (*time.Time, error)
}

// Scanner runs freshness scans over a channel list.
type Scanner struct {
	api    API
	store  cache.Store
	logger zerolog.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// New creates a scanner. The store may be nil, in which case every run
// fetches everything.
func New(api API, store cache.Store) *Scanner {
	return &Scanner{
		api:    api,
		store:  store,
		logger: log.With().Str("component", "scanner").Logger(),
		now:    time.Now,
	}
}

// Run scans the given channel IDs and returns exactly one result per
// distinct ID. Per-channel failures become statuses, never a scan-wide
// error; the only errors Run itself returns are context cancellation
// surfaced through the limiter. With bypassCache true the freshness
// check always fails, re-fetching everything while still reusing cached
// playlist handles.
func (s *Scanner) Run(ctx context.Context, channelIDs []string, cfg Config, bypassCache bool) (map[string]Result, error) {
	cfg = cfg.withDefaults()
	now := s.now()
	start := time.Now()

	results := make(map[string]Result, len(channelIDs))

	// One snapshot up front; a failing store degrades to a full fetch.
	snapshot := map[string]cache.Entry{}
	if s.store != nil {
		snap, err := s.store.GetMany(ctx, channelIDs)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Cache snapshot failed - scanning without cache")
		} else {
			snapshot = snap
		}
	}

	// Partition: fresh hits answer from cache, stale entries with a
	// known handle skip straight to the detail fetch, the rest need
	// batch resolution first.
	var unresolved []string
	pending := make(map[string]string) // channel ID -> uploads playlist ID
	seen := make(map[string]struct{}, len(channelIDs))

	for _, id := range channelIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		entry, cached := snapshot[id]
		if cached && !bypassCache && entry.Fresh(cfg.CacheTTLHours, now) {
			results[id] = resultFromEntry(entry, cfg, now)
			continue
		}
		if cached && entry.UploadsPlaylistID != "" {
			pending[id] = entry.UploadsPlaylistID
			continue
		}
		unresolved = append(unresolved, id)
	}

	s.logger.Debug().
		Int("channels", len(seen)).
		Int("cache_hits", len(results)).
		Int("handle_reuse", len(pending)).
		Int("unresolved", len(unresolved)).
		Bool("bypass_cache", bypassCache).
		Msg("Scan partitioned")

	// Stage one: resolve handles, one eager call per chunk. Chunk count
	// is small and bounded, so these are not run through the limiter. A
	// failed chunk settles all its channels without touching the others.
	var mu sync.Mutex
	var wg sync.WaitGroup
	for chunkStart := 0; chunkStart < len(unresolved); chunkStart += ytapi.BatchSize {
		chunkEnd := chunkStart + ytapi.BatchSize
		if chunkEnd > len(unresolved) {
			chunkEnd = len(unresolved)
		}
		chunk := unresolved[chunkStart:chunkEnd]

		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()

			playlists, err := s.api.ChannelUploadPlaylists(ctx, chunk)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				status, message := statusFromError(err)
				s.logger.Warn().
					Err(err).
					Int("channels", len(chunk)).
					Msg("Batch resolution failed for chunk")
				for _, id := range chunk {
					results[id] = Result{ThresholdDays: cfg.ThresholdDays, Status: status, Error: message}
				}
				return
			}

			for _, id := range chunk {
				playlistID, ok := playlists[id]
				if !ok || playlistID == "" {
					// Channel absent from the batch response: live but
					// with nothing to show.
					results[id] = Result{ThresholdDays: cfg.ThresholdDays, Status: StatusNoUploads}
					continue
				}
				pending[id] = playlistID
			}
		}(chunk)
	}
	wg.Wait()

	// Stage two: detail fetches through the limiter, each retrying
	// independently. Every task settles; no short-circuit on failure.
	lim := limiter.New(cfg.Concurrency)
	updates := make(map[string]cache.Entry, len(pending))

	for id, playlistID := range pending {
		wg.Add(1)
		go func(id, playlistID string) {
			defer wg.Done()

			err := lim.Do(ctx, func() error {
				ts, err := s.api.LatestUpload(ctx, playlistID)

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					// Leave the cache entry untouched: a stale handle
					// beats discarding it.
					status, message := statusFromError(err)
					results[id] = Result{ThresholdDays: cfg.ThresholdDays, Status: status, Error: message}
					return nil
				}

				entry := cache.Entry{
					UploadsPlaylistID: playlistID,
					LastActivityAt:    ts,
					CheckedAt:         now,
				}
				updates[id] = entry
				results[id] = resultFromEntry(entry, cfg, now)
				return nil
			})
			if err != nil {
				// Limiter admission failed (context cancelled): the
				// channel still needs its result.
				mu.Lock()
				results[id] = Result{ThresholdDays: cfg.ThresholdDays, Status: StatusAPIError, Error: err.Error()}
				mu.Unlock()
			}
		}(id, playlistID)
	}
	wg.Wait()

	// Persist what we learned. Awaiting the write keeps back-to-back
	// scans deterministic; failures never fail the scan.
	if s.store != nil && len(updates) > 0 {
		if err := s.store.SetMany(ctx, updates); err != nil {
			s.logger.Warn().Err(err).Int("entries", len(updates)).Msg("Cache write-back failed")
		}
	}

	s.logger.Info().
		Int("channels", len(results)).
		Int("fetched", len(pending)).
		Dur("duration", time.Since(start)).
		Msg("Scan complete")

	return results, nil
}

// resultFromEntry builds the outward result for a settled channel.
func resultFromEntry(entry cache.Entry, cfg Config, now time.Time) Result {
	result := Result{ThresholdDays: cfg.ThresholdDays}

	if entry.LastActivityAt == nil {
		result.Status = StatusNoUploads
		return result
	}

	days := int(now.Sub(*entry.LastActivityAt).Hours() / 24)
	result.LastActivityAt = entry.LastActivityAt
	result.DaysAgo = &days
	result.Status = StatusOK
	return result
}
