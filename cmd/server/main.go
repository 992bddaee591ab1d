package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cyberguard/internal/api"
	"cyberguard/internal/app"
	"cyberguard/internal/config"
	"cyberguard/internal/scheduler"
)

func main() {
	envErr := app.LoadEnv()

	cfg, err := config.New()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := app.NewLogger(cfg, os.Stdout)
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("continuing with process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adv, err := app.NewAdvisor(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("advisor unavailable")
	}

	mon, err := app.NewMonitor(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid monitor configuration")
	}
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		if err := mon.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("threat monitor failed")
		}
	}()

	scanOpts, err := app.ScanOptions(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid safe browsing configuration")
	}

	sweeper := scheduler.New(logger.With().Str("component", "sessions").Logger())
	router := api.NewRouter(logger, adv, mon, cfg.AllowedOrigins,
		api.WithSessionExpiry(sweeper, cfg.SessionIdleTTL),
		api.WithScanOptions(scanOpts...),
	)
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// chat replies wait on the model, and the monitor stream is long-lived
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddr).
			Str("env", cfg.AppEnv).
			Str("monitor", mon.Variant().Name).
			Msg("starting CyberGuard server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	<-monitorDone

	logger.Info().Msg("server stopped")
}
