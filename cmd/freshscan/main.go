// Command freshscan scans a watchlist of YouTube channels and reports
// how long ago each one last uploaded.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/yt-freshness-client/internal/config"
	"github.com/Sternrassler/yt-freshness-client/pkg/cache"
	"github.com/Sternrassler/yt-freshness-client/pkg/logging"
	"github.com/Sternrassler/yt-freshness-client/pkg/quota"
	"github.com/Sternrassler/yt-freshness-client/pkg/scan"
	"github.com/Sternrassler/yt-freshness-client/pkg/ytapi"
)

func main() {
	validate := flag.Bool("validate", false, "validate the API key and exit")
	bypassCache := flag.Bool("bypass-cache", false, "re-fetch every channel even when cached results are fresh")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx := context.Background()

	// Redis is optional: without it the cache lives in-process and
	// quota usage is only visible in the Prometheus counters.
	var store cache.Store = cache.NewMemory()
	var meter ytapi.Meter
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisURL).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		store = cache.NewRedis(redisClient)
		meter = quota.NewRedisMeter(redisClient, logging.NewLogger("quota"))
		logger.Info().Str("addr", cfg.RedisURL).Msg("Connected to Redis")
	}

	apiClient, err := ytapi.New(ytapi.Config{
		APIKey: cfg.APIKey,
		Meter:  meter,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create API client")
	}

	if *validate {
		if err := apiClient.ValidateKey(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "API key rejected: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("API key OK")
		return
	}

	watchlist, err := config.LoadWatchlist(cfg.Watchlist)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Watchlist).Msg("Failed to load watchlist")
	}
	if len(watchlist.Channels) == 0 {
		logger.Fatal().Str("path", cfg.Watchlist).Msg("Watchlist is empty")
	}

	scanner := scan.New(apiClient, store)
	results, err := scanner.Run(ctx, watchlist.IDs(), scan.Config{
		ThresholdDays: cfg.ThresholdDays,
		CacheTTLHours: cfg.CacheTTLHours,
		Concurrency:   cfg.Concurrency,
	}, *bypassCache)
	if err != nil {
		logger.Fatal().Err(err).Msg("Scan failed")
	}

	printReport(watchlist, results)

	for _, result := range results {
		if result.Status == scan.StatusQuotaExceeded {
			fmt.Fprintln(os.Stderr, "warning: daily API quota exceeded - further scans will fail until it resets")
			os.Exit(2)
		}
	}
}

func printReport(watchlist *config.Watchlist, results map[string]scan.Result) {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		result := results[id]
		name := watchlist.NameOf(id)

		switch result.Status {
		case scan.StatusOK:
			marker := ""
			if result.Stale() {
				marker = "  STALE"
			}
			fmt.Printf("%-40s last upload %s (%d days ago)%s\n",
				name, result.LastActivityAt.Format(time.DateOnly), *result.DaysAgo, marker)
		case scan.StatusNoUploads:
			fmt.Printf("%-40s no uploads\n", name)
		default:
			fmt.Printf("%-40s %s: %s\n", name, result.Status, result.Error)
		}
	}
}
