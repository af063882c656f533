// Command animeshelf serves anime listings from the Jikan API.
//
//	animeshelf [serve]
//	animeshelf cover -id 52991 -out frieren.jpg
//
// Configuration is read from ANIMESHELF_* environment variables and an
// optional .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/adamwoolhether/animeshelf/cache"
	"github.com/adamwoolhether/animeshelf/internal/config"
	"github.com/adamwoolhether/animeshelf/jikan"
	"github.com/adamwoolhether/animeshelf/throttle"
)

const service = "animeshelf"

var version = "develop"

var errUsage = errors.New("usage: animeshelf [serve | cover -id ID -out PATH]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := config.NewLogger(stdout, cfg.Log, slog.String("service", service), slog.String("version", version))

	switch cmd {
	case "serve":
		return serve(ctx, cfg, log)
	case "cover":
		return saveCover(ctx, cfg, log, args)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

// newClient wires the queue, rate limit and cache into a Jikan client.
// The returned close func releases the cache connection.
func newClient(ctx context.Context, cfg config.Config, log *slog.Logger, optFns ...jikan.Option) (*jikan.Client, func(context.Context) error, error) {
	queue, err := throttle.NewQueue(cfg.Jikan.Cooldown, throttle.WithQueueLogger(func() *slog.Logger { return log }))
	if err != nil {
		return nil, nil, fmt.Errorf("creating queue: %w", err)
	}

	store, closeFn, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	opts := []jikan.Option{
		jikan.WithBaseURL(cfg.Jikan.BaseURL),
		jikan.WithTimeout(cfg.Jikan.Timeout),
		jikan.WithUserAgent(cfg.Jikan.UserAgent),
		jikan.WithRateLimit(throttle.Limit{Requests: cfg.Jikan.RateLimit, Per: time.Minute, Burst: cfg.Jikan.RateBurst}),
		jikan.WithCache(store, cfg.Cache.TTL),
		jikan.WithLogger(log),
	}

	client, err := jikan.New(queue, append(opts, optFns...)...)
	if err != nil {
		closeFn(ctx)
		return nil, nil, fmt.Errorf("creating jikan client: %w", err)
	}

	return client, closeFn, nil
}

// newStore connects to Redis when a URL is configured and otherwise keeps
// responses in memory.
func newStore(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Store, func(context.Context) error, error) {
	if cfg.Redis.URL == "" {
		mem, err := cache.NewMemory(cfg.Cache.Capacity)
		if err != nil {
			return nil, nil, fmt.Errorf("creating memory cache: %w", err)
		}
		log.Info("cache ready", "kind", "memory", "capacity", cfg.Cache.Capacity)

		return mem, func(context.Context) error { return nil }, nil
	}

	rdb, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.RetryAttempts, cfg.Redis.RetryInterval)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting cache: %w", err)
	}
	log.Info("cache ready", "kind", "redis", "prefix", cfg.Redis.Prefix)

	return cache.NewRedis(rdb, cfg.Redis.Prefix), func(context.Context) error { return rdb.Close() }, nil
}
