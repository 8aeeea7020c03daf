package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LAMpbrien/adventures-of/internal/app"
	"github.com/LAMpbrien/adventures-of/internal/cache"
	"github.com/LAMpbrien/adventures-of/internal/config"
	"github.com/LAMpbrien/adventures-of/internal/handlers"
	"github.com/LAMpbrien/adventures-of/internal/jobs"
	"github.com/LAMpbrien/adventures-of/internal/log"
	"github.com/LAMpbrien/adventures-of/internal/server"
)

// webhookEventTTL is how long a processed payment event id is remembered.
const webhookEventTTL = 72 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error().Err(err).Msg("close backing services")
		}
	}()

	handlerSet := handlers.NewHandlerSet(
		logger,
		cfg,
		application.Books,
		cache.NewEventGuard(application.Redis, webhookEventTTL),
		application.DB.Ping,
		func(ctx context.Context) error { return application.Redis.Ping(ctx).Err() },
	)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(application.Producer, cfg.Generation.SweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")
		scheduler.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server exited cleanly")
}
