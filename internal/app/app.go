// Package app wires the shared dependencies of the api and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/LAMpbrien/adventures-of/internal/assets"
	"github.com/LAMpbrien/adventures-of/internal/cache"
	"github.com/LAMpbrien/adventures-of/internal/config"
	"github.com/LAMpbrien/adventures-of/internal/database"
	"github.com/LAMpbrien/adventures-of/internal/ebook"
	"github.com/LAMpbrien/adventures-of/internal/gemini"
	"github.com/LAMpbrien/adventures-of/internal/illustration"
	"github.com/LAMpbrien/adventures-of/internal/queue"
	"github.com/LAMpbrien/adventures-of/internal/repository"
	"github.com/LAMpbrien/adventures-of/internal/service"
	"github.com/LAMpbrien/adventures-of/internal/storage"
	"github.com/LAMpbrien/adventures-of/internal/story"
)

type App struct {
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Store    *storage.ObjectStore
	Producer *queue.Producer
	Books    *service.BookService
}

// Build connects to every backing service, applies the schema and
// assembles the book service. The model client is created here once.
func Build(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*App, error) {
	pool, err := database.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a := &App{DB: pool}

	a.Redis, err = cache.Connect(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := queue.EnsureGroup(ctx, a.Redis, cfg.Redis.Stream, cfg.Redis.Group); err != nil {
		a.Close()
		return nil, err
	}

	a.Store, err = storage.NewObjectStore(cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init object store: %w", err)
	}
	if err := a.Store.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	fetcher := assets.NewFetcher(assets.FetchConfig{
		Timeout:      cfg.Generation.FetchTimeout,
		MaxBytes:     cfg.Generation.MaxFetchBytes,
		TrustedHosts: storageHosts(cfg.Storage),
	})

	model, err := gemini.New(ctx, cfg.Gemini, gemini.Options{
		Fetcher:       fetcher,
		Stager:        a.Store,
		RendersBucket: cfg.Storage.BucketRenders,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Producer = queue.NewProducer(a.Redis, cfg.Redis.Stream)

	a.Books = service.NewBookService(service.Deps{
		Children:    repository.NewChildRepository(pool),
		Books:       repository.NewBookRepository(pool),
		Pages:       repository.NewPageRepository(pool),
		Stories:     story.NewGenerator(model, cfg.Gemini.MaxOutputTokens),
		Illustrator: illustration.NewGenerator(model),
		Assets:      assets.NewPersister(fetcher, a.Store, cfg.Storage.BucketIllustrations),
		Blobs:       a.Store,
		Lease:       cache.NewRunLocker(a.Redis, cfg.Generation.RunLeaseTTL),
		Dispatcher:  a.Producer,
		Renderer:    ebook.NewRenderer(fetcher),
	}, service.Options{
		PreviewPages:        cfg.Generation.PreviewPages,
		PaymentBypass:       cfg.Generation.PaymentBypass,
		StaleAfter:          cfg.Generation.StaleAfter,
		IllustrationsBucket: cfg.Storage.BucketIllustrations,
	}, logger)

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		a.DB.Close()
	}
	return errors.Join(errs...)
}

// storageHosts lists the object store addresses the fetcher may reach even
// though they usually resolve to private networks.
func storageHosts(cfg config.StorageConfig) []string {
	hosts := []string{cfg.Endpoint}
	if u, err := url.Parse(cfg.PublicBaseURL); err == nil && u.Host != "" {
		hosts = append(hosts, u.Host)
	}
	return hosts
}
