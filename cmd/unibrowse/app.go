// cmd/unibrowse/app.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"uni-directory/internal/catalog"
	"uni-directory/internal/common/config"
	"uni-directory/internal/common/database"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/common/observability"
	"uni-directory/internal/models"
	"uni-directory/internal/query"
	"uni-directory/pkg/registry"
)

// app holds everything a command needs, built once per process.
type app struct {
	cfg       *config.Config
	zapLog    *zap.Logger
	log       logger.Logger
	obs       *observability.Observability
	registry  *registry.FilterRegistry
	sessionID string

	api   *catalog.APISource
	index *catalog.IndexSource
	redis *database.RedisClient
	cache *catalog.ResponseCache
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	a := &app{
		cfg:       cfg,
		zapLog:    zapLog,
		log:       logger.NewZapAdapter(zapLog),
		sessionID: uuid.NewString(),
	}

	a.registry, err = registry.LoadOrDefault(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("filter registry: %w", err)
	}

	if opts.metricsAddr != "" || cfg.Observability.MetricsAddr != "" || cfg.Observability.JaegerEndpoint != "" {
		a.obs = observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, a.log)
	} else {
		a.obs = observability.NewNoop()
	}

	sourceOpts := []catalog.SourceOption{
		catalog.WithObservability(a.obs),
		catalog.WithSourceLogger(a.log),
		catalog.WithFilterKeys(a.registry.Keys(registry.CollectionProgrammes)...),
	}

	if cfg.Cache.Enabled {
		err = retryWithBackoff(ctx, func() error {
			var err error
			a.redis, err = database.NewRedis(cfg.Cache.Redis)
			if err != nil {
				return err
			}
			return a.redis.Ping(ctx)
		}, 3, 500*time.Millisecond, zapLog, "Redis connection")
		if err != nil {
			// browse uncached
			zapLog.Warn("response cache disabled", zap.Error(err))
			a.redis = nil
		} else {
			a.cache = catalog.NewResponseCache(a.redis.Client, a.sessionID, config.GetDuration(cfg.Cache.TTL), a.log)
			sourceOpts = append(sourceOpts, catalog.WithCache(a.cache))
			zapLog.Info("Response cache connected", zap.String("session", a.sessionID))
		}
	}

	a.api = catalog.NewAPISource(cfg.API, sourceOpts...)

	if cfg.Search.Backend == "elasticsearch" {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Search.Elasticsearch, nil)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 5, time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		pageSize := config.GetBrowserConfig(cfg, config.BrowserCourses).PageSize
		a.index = catalog.NewIndexSource(es, pageSize, a.obs, a.log)
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", es.Index))
	}

	return a, nil
}

// programmeFetcher is the listing backend selected by search.backend.
func (a *app) programmeFetcher() query.Fetcher[models.Programme] {
	if a.index != nil {
		return a.index.ListProgrammes
	}
	return a.api.ListProgrammes
}

func (a *app) close() {
	if a.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.cache.Purge(ctx); err != nil {
			a.zapLog.Warn("cache purge failed", zap.Error(err))
		}
		cancel()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	a.obs.Shutdown()
	_ = a.zapLog.Sync()
}
