package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces channel entries in Redis.
	keyPrefix = "yt:channel:"

	// Retention bounds how long entries survive in Redis. It is
	// deliberately much longer than any scan TTL: a stale entry still
	// carries the uploads playlist handle that lets a re-fetch skip
	// batch resolution. Entries are otherwise never actively deleted.
	Retention = 90 * 24 * time.Hour
)

// Redis is a Store backed by a Redis instance, for deployments where
// scan results must survive process restarts or be shared across
// workers.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{client: client}
}

// GetMany implements Store using a single MGET.
func (r *Redis) GetMany(ctx context.Context, channelIDs []string) (map[string]Entry, error) {
	if len(channelIDs) == 0 {
		return map[string]Entry{}, nil
	}

	keys := make([]string, len(channelIDs))
	for i, id := range channelIDs {
		keys[i] = keyPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		storeErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	found := make(map[string]Entry)
	for i, value := range values {
		if value == nil {
			storeMisses.Inc()
			continue
		}

		raw, ok := value.(string)
		if !ok {
			storeErrors.WithLabelValues("get").Inc()
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			// Corrupted entry: treat as a miss and let the next
			// SetMany overwrite it.
			storeErrors.WithLabelValues("get").Inc()
			continue
		}

		storeHits.Inc()
		found[channelIDs[i]] = entry
	}

	return found, nil
}

// SetMany implements Store using one pipelined round trip.
func (r *Redis) SetMany(ctx context.Context, entries map[string]Entry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for id, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			storeErrors.WithLabelValues("set").Inc()
			return fmt.Errorf("marshal entry for %s: %w", id, err)
		}
		pipe.Set(ctx, keyPrefix+id, data, Retention)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		storeErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis pipeline set: %w", err)
	}

	return nil
}

// Clear removes every cached channel entry. Exposed for the explicit
// cache-clear operation; scans never call this.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			storeErrors.WithLabelValues("delete").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}
