package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/curiocity/cityguide/internal/api"
	"github.com/curiocity/cityguide/internal/cache"
	"github.com/curiocity/cityguide/internal/config"
	"github.com/curiocity/cityguide/internal/location"
	"github.com/curiocity/cityguide/internal/logger"
	"github.com/curiocity/cityguide/internal/storage"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, backends, closeStore, err := openStore(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var c location.Cache
	if store != nil {
		c = cache.New(store, log, cache.WithTTL(cfg.Cache.TTL))
	}

	history, closeHistory := newHistoryWriter(ctx, cfg.Providers, log)
	defer closeHistory()

	svc := location.NewService(newDeps(cfg.Providers, history, log), c, log)
	handlers := api.NewHandlers(svc, log)
	router := api.NewRouter(handlers, cfg.Server.BearerToken, cfg.Server.CORSOrigins, backends, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", zap.Any("recover", r))
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("cache", cfg.Cache.Backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// openStore connects the configured cache backend. The returned store is nil
// when caching is disabled.
func openStore(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) (cache.Store, map[string]api.Pinger, func(), error) {
	backends := map[string]api.Pinger{}

	switch cfg.Backend {
	case config.BackendRedis:
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		store := cache.NewRedisStore(client)
		backends["redis"] = store
		return store, backends, func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
		}

		repo := storage.NewRepository(pool)
		go purgeExpired(ctx, repo, cfg.TTL, log)

		backends["db"] = pool
		return repo, backends, pool.Close, nil

	default:
		log.Warn("cache disabled")
		return nil, backends, func() {}, nil
	}
}

// purgeExpired removes expired rows every interval until ctx is done.
func purgeExpired(ctx context.Context, repo *storage.Repository, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				log.Warn("purging expired cache entries failed", zap.Error(err))
				continue
			}
			log.Debug("purged expired cache entries", zap.Int64("rows", n))
		}
	}
}

// newHistoryWriter uses Gemini when a key is configured and the templated
// fallback otherwise.
func newHistoryWriter(ctx context.Context, cfg config.ProviderConfig, log *zap.Logger) (*location.HistoryWriter, func()) {
	if cfg.GeminiKey == "" {
		log.Info("gemini key not set, history uses fallback text")
		return location.NewHistoryWriter(nil, log), func() {}
	}

	gemini, err := location.NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel)
	if err != nil {
		log.Warn("gemini unavailable, history uses fallback text", zap.Error(err))
		return location.NewHistoryWriter(nil, log), func() {}
	}
	return location.NewHistoryWriter(gemini, log), func() { _ = gemini.Close() }
}

func newDeps(cfg config.ProviderConfig, history *location.HistoryWriter, log *zap.Logger) location.Deps {
	otm := location.NewOpenTripMapClient(cfg.OpenTripMapKey, log)
	fsq := location.NewFoursquareClient(cfg.FoursquareKey, log)
	osm := location.NewOverpassClient(log)
	gfy := location.NewGeoapifyClient(cfg.GeoapifyKey, log)

	return location.Deps{
		Geocoder:   location.NewNominatimClient(cfg.NominatimUserAgent, log),
		Wikipedia:  location.NewWikipediaClient(log),
		News:       location.NewNewsClient(cfg.NewsDataKey, cfg.NewsCountry, log),
		AirQuality: location.NewWAQIClient(cfg.WAQIToken, log),
		History:    history,
		Pipelines:  location.NewPipelines(otm, fsq, osm, gfy),
	}
}
