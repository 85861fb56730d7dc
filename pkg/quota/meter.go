// Package quota tracks YouTube Data API quota consumption.
//
// The API charges a fixed unit cost per call against a daily budget and
// exposes no headers reporting the remaining balance, so consumption is
// counted locally: every call charges its units into a Redis counter
// that expires with the quota day. The count is best-effort accounting
// for dashboards and alerting, not an admission gate.
package quota

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisKeyUsage holds the running unit count for the current quota day.
const redisKeyUsage = "yt:quota:units_used"

// Prometheus metrics for quota tracking.
var (
	quotaUnitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yt_quota_units_total",
		Help: "Total YouTube API quota units charged",
	})

	quotaUnitsUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yt_quota_units_used",
		Help: "Quota units charged in the current quota day",
	})
)

// RedisMeter counts consumed quota units in Redis so the running total
// is shared across processes.
type RedisMeter struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewRedisMeter creates a meter backed by the given Redis client.
func NewRedisMeter(redisClient *redis.Client, logger zerolog.Logger) *RedisMeter {
	return &RedisMeter{
		redis:  redisClient,
		logger: logger,
	}
}

// Charge records units consumed by one API call. Failures are logged and
// swallowed: accounting must never fail a fetch.
func (m *RedisMeter) Charge(ctx context.Context, units int) {
	quotaUnitsTotal.Add(float64(units))

	pipe := m.redis.Pipeline()
	incr := pipe.IncrBy(ctx, redisKeyUsage, int64(units))
	// The quota day resets at midnight Pacific; an approximate 24h
	// window on first write is close enough for best-effort accounting.
	pipe.ExpireNX(ctx, redisKeyUsage, 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to record quota usage")
		return
	}

	quotaUnitsUsed.Set(float64(incr.Val()))
}

// Used returns the units charged so far in the current quota day.
func (m *RedisMeter) Used(ctx context.Context) (int64, error) {
	used, err := m.redis.Get(ctx, redisKeyUsage).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return used, err
}
