// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/partsignal/content-audit/internal/archive"
	"github.com/partsignal/content-audit/internal/audit"
	"github.com/partsignal/content-audit/internal/config"
	collyfetcher "github.com/partsignal/content-audit/internal/fetcher/colly"
	"github.com/partsignal/content-audit/internal/fetcher/headless"
	readerfetcher "github.com/partsignal/content-audit/internal/fetcher/reader"
	"github.com/partsignal/content-audit/internal/hash/sha256"
	"github.com/partsignal/content-audit/internal/pipeline"
	"github.com/partsignal/content-audit/internal/progress"
	"github.com/partsignal/content-audit/internal/progress/sinks"
	"github.com/partsignal/content-audit/internal/publisher"
	pubsubpublisher "github.com/partsignal/content-audit/internal/publisher/pubsub"
	"github.com/partsignal/content-audit/internal/resolve"
	"github.com/partsignal/content-audit/internal/store"
	"github.com/partsignal/content-audit/pkg/anthropic"
	"github.com/partsignal/content-audit/pkg/jina"
	"github.com/partsignal/content-audit/pkg/serper"
)

// App holds all the shared, long-lived services for the application. It is
// initialized once at startup and passed to the components that need it.
type App struct {
	logger   *zap.Logger
	orch     *pipeline.Orchestrator
	hub      *progress.Hub
	store    store.Provider
	pub      publisher.Provider
	headless *headless.Fetcher
	gcs      *archive.GCSStore
}

// Orchestrator returns the pipeline orchestrator.
func (a *App) Orchestrator() *pipeline.Orchestrator {
	return a.orch
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// NewApp creates and initializes an App from the loaded configuration. It
// is the central point for service initialization and fails fast if any
// critical service cannot be built, naming the missing dependency.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	generatorClient, err := anthropic.New(anthropic.Config{
		APIKey:    cfg.Anthropic.APIKey,
		Model:     cfg.Anthropic.Model,
		MaxTokens: cfg.Anthropic.MaxTokens,
		Timeout:   cfg.AnthropicTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("init generation client: %w", err)
	}
	generator, err := pipeline.NewAnthropicGenerator(generatorClient)
	if err != nil {
		return nil, fmt.Errorf("init generator: %w", err)
	}

	searchClient, err := serper.New(serper.Config{
		APIKey:   cfg.Search.APIKey,
		Endpoint: cfg.Search.Endpoint,
		Timeout:  time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("init search client: %w", err)
	}
	searcher, err := pipeline.NewSerperSearcher(searchClient)
	if err != nil {
		return nil, fmt.Errorf("init searcher: %w", err)
	}

	fetcher, err := a.buildFetcher(cfg)
	if err != nil {
		return nil, err
	}
	archiver, err := a.buildArchiver(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.store, err = buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.pub, err = buildPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init progress metrics sink: %w", err)
	}
	a.hub = progress.NewHub(progress.Config{},
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
	)

	resolver, err := resolve.NewEngine(searcher, generator, a.hub, logger.Named("resolve"))
	if err != nil {
		return nil, fmt.Errorf("init resolution engine: %w", err)
	}
	auditor, err := audit.NewEngine(generator, fetcher, archiver, a.hub, logger.Named("audit"))
	if err != nil {
		return nil, fmt.Errorf("init audit engine: %w", err)
	}

	a.orch, err = pipeline.New(pipeline.Config{
		Generator: generator,
		Resolver:  resolver,
		Auditor:   auditor,
		Store:     a.store,
		Publisher: a.pub,
		Emitter:   a.hub,
		Logger:    logger.Named("pipeline"),
	})
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	return a, nil
}

func (a *App) buildFetcher(cfg config.Config) (audit.ContentFetcher, error) {
	switch cfg.Fetcher.Mode {
	case "reader":
		reader := jina.New(jina.Config{
			Endpoint:   cfg.Reader.Endpoint,
			ContentCap: cfg.Fetcher.ContentCap,
			Timeout:    time.Duration(cfg.Reader.TimeoutSeconds) * time.Second,
		})
		return readerfetcher.New(reader)
	case "colly":
		return collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.Fetcher.UserAgent,
			RespectRobots: cfg.Fetcher.RespectRobots,
			Timeout:       cfg.FetchTimeout(),
			ContentCap:    cfg.Fetcher.ContentCap,
		}), nil
	case "headless":
		f, err := headless.NewChromedp(headless.Config{
			MaxParallel:       cfg.Fetcher.MaxParallel,
			UserAgent:         cfg.Fetcher.UserAgent,
			NavigationTimeout: time.Duration(cfg.Fetcher.NavTimeoutSec) * time.Second,
			ContentCap:        cfg.Fetcher.ContentCap,
		})
		if err != nil {
			return nil, fmt.Errorf("init headless fetcher: %w", err)
		}
		a.headless = f
		return f, nil
	default:
		return nil, fmt.Errorf("unknown fetcher mode: %s", cfg.Fetcher.Mode)
	}
}

func (a *App) buildArchiver(ctx context.Context, cfg config.Config) (audit.Archiver, error) {
	switch cfg.Archive.Mode {
	case "none":
		return nil, nil
	case "local":
		st, err := archive.NewLocalStore(archive.LocalConfig{BaseDir: cfg.Archive.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("init local archive: %w", err)
		}
		a.logger.Info("using local snapshot archive", zap.String("dir", cfg.Archive.LocalDir))
		return archive.NewRecorder(st, sha256.New()), nil
	case "gcs":
		st, err := archive.NewGCSStore(ctx, archive.GCSConfig{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs archive: %w", err)
		}
		a.gcs = st
		a.logger.Info("using GCS snapshot archive", zap.String("bucket", cfg.Archive.GCSBucket))
		return archive.NewRecorder(st, sha256.New()), nil
	default:
		return nil, fmt.Errorf("unknown archive mode: %s", cfg.Archive.Mode)
	}
}

func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Provider, error) {
	if cfg.DB.DSN == "" {
		logger.Info("no database configured; sessions are not persisted")
		return store.NoOpProvider{}, nil
	}
	provider, err := store.NewPostgresProvider(ctx, store.PostgresConfig{
		DSN:             cfg.DB.DSN,
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
		MaxConnLifetime: time.Duration(cfg.DB.ConnLifetimeMin) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres store: %w", err)
	}
	logger.Info("using postgres session store")
	return provider, nil
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (publisher.Provider, error) {
	if !cfg.PubSub.Enabled {
		return publisher.NoOpProvider{}, nil
	}
	pub, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicID)
	if err != nil {
		return nil, fmt.Errorf("init pubsub publisher: %w", err)
	}
	logger.Info("using pubsub publisher", zap.String("project", cfg.PubSub.ProjectID))
	return pub, nil
}

// Close gracefully shuts down all services in reverse dependency order.
func (a *App) Close() {
	if a.hub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
		cancel()
	}
	if a.headless != nil {
		a.headless.Close()
	}
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.logger.Warn("gcs archive close failed", zap.Error(err))
		}
	}
	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.logger.Warn("publisher close failed", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}
