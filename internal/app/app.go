// Package app wires configuration into long-lived services and the word
// pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/config"
	"github.com/JakeFAU/dictcrawler/internal/dict"
	"github.com/JakeFAU/dictcrawler/internal/download"
	"github.com/JakeFAU/dictcrawler/internal/extract/bing"
	collyfetcher "github.com/JakeFAU/dictcrawler/internal/fetcher/colly"
	"github.com/JakeFAU/dictcrawler/internal/job"
	"github.com/JakeFAU/dictcrawler/internal/lookup"
	"github.com/JakeFAU/dictcrawler/internal/policy/ratelimit"
	"github.com/JakeFAU/dictcrawler/internal/publisher/pubsub"
	"github.com/JakeFAU/dictcrawler/internal/retry"
	"github.com/JakeFAU/dictcrawler/internal/storage/gcs"
	"github.com/JakeFAU/dictcrawler/internal/storage/local"
	blobmemory "github.com/JakeFAU/dictcrawler/internal/storage/memory"
	"github.com/JakeFAU/dictcrawler/internal/store/memory"
	"github.com/JakeFAU/dictcrawler/internal/store/postgres"
	"github.com/JakeFAU/dictcrawler/internal/store/sqlite"
	"github.com/JakeFAU/dictcrawler/internal/wordsource"
)

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// App holds the shared services for one command invocation.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	store   dict.ResultStore
	source  *wordsource.File
	closers []func() error

	audioClient *http.Client
}

// Option customizes an App.
type Option func(*App)

// WithAudioClient sets the HTTP client used for audio downloads.
func WithAudioClient(c *http.Client) Option {
	return func(a *App) { a.audioClient = c }
}

// New opens the result store. Pipeline services are built on demand by
// Pipeline so read-only commands never touch blob storage or Pub/Sub.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		source: wordsource.NewFile(cfg.Input.Path),
	}
	for _, opt := range opts {
		opt(a)
	}

	store, err := newResultStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init result store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	if cfg.DB.AutoMigrate {
		if m, ok := store.(schemaEnsurer); ok {
			if err := m.EnsureSchema(ctx); err != nil {
				_ = a.Close()
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
	}
	logger.Info("result store ready", zap.String("driver", cfg.DB.Driver), zap.String("table", cfg.DB.Table))
	return a, nil
}

func newResultStore(ctx context.Context, cfg config.Config) (dict.ResultStore, error) {
	switch cfg.DB.Driver {
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.PoolSize(),
		})
	case "sqlite":
		return sqlite.New(ctx, sqlite.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.PoolSize(),
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the result store.
func (a *App) Store() dict.ResultStore {
	return a.store
}

// Source returns the configured word list.
func (a *App) Source() *wordsource.File {
	return a.source
}

// Pipeline builds the per-word job: fetcher, extractor, retrying lookup,
// audio downloader, blob store and optional publisher.
func (a *App) Pipeline(ctx context.Context) (*job.WordJob, error) {
	cfg := a.cfg

	blobs, err := a.newBlobStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{RPS: cfg.Crawler.RequestsPerSecond})

	fetcher, err := collyfetcher.New(collyfetcher.Config{
		URLTemplate: cfg.Lookup.URLTemplate,
		UserAgent:   cfg.Crawler.UserAgent,
		Timeout:     cfg.FetchTimeout(),
	}, limiter)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	backoffInitial := time.Duration(cfg.Retry.BackoffInitialMs) * time.Millisecond
	backoffMax := time.Duration(cfg.Retry.BackoffMaxMs) * time.Millisecond

	lk := lookup.New(
		fetcher,
		bing.New(),
		retry.NewExponential(cfg.Lookup.MaxFetchAttempts, backoffInitial, backoffMax),
		lookup.Config{EmptyRetries: cfg.Lookup.EmptyRetries},
		a.logger,
	)

	downloader, err := download.New(
		blobs,
		retry.NewExponential(cfg.Download.MaxAttempts, backoffInitial, backoffMax),
		limiter,
		download.Config{
			Timeout:   cfg.DownloadTimeout(),
			UserAgent: cfg.Crawler.UserAgent,
			Client:    a.audioClient,
		},
		a.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("init downloader: %w", err)
	}

	var publisher dict.Publisher
	if cfg.PubSub.TopicName != "" {
		p, err := pubsub.Dial(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init pubsub: %w", err)
		}
		a.closers = append(a.closers, p.Close)
		publisher = p
		a.logger.Info("publishing records", zap.String("topic", cfg.PubSub.TopicName))
	}

	return job.New(lk, downloader, a.store, publisher, job.Config{Topic: cfg.PubSub.TopicName}, a.logger), nil
}

func (a *App) newBlobStore(ctx context.Context) (dict.BlobStore, error) {
	cfg := a.cfg.Storage
	switch cfg.Backend {
	case "local":
		a.logger.Info("writing audio to local disk", zap.String("base_dir", cfg.BaseDir))
		return local.New(local.Config{BaseDir: cfg.BaseDir})
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.logger.Info("writing audio to gcs", zap.String("bucket", cfg.GCSBucket), zap.String("prefix", cfg.Prefix))
		return gcs.New(client, gcs.Config{Bucket: cfg.GCSBucket, Prefix: cfg.Prefix})
	case "memory":
		a.logger.Warn("audio is kept in memory and discarded on exit")
		return blobmemory.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Close releases services in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
