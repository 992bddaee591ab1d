package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"cyberguard/internal/app"
	"cyberguard/internal/config"
	"cyberguard/internal/telegram"
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
	if cfg.TelegramBotToken == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN is required")
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
	handle, err := mon.Start(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start threat monitor")
	}
	defer handle.Stop()

	scanOpts, err := app.ScanOptions(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid safe browsing configuration")
	}

	bot, err := telegram.New(cfg.TelegramBotToken, adv, mon,
		telegram.WithLogger(logger.With().Str("component", "telegram").Logger()),
		telegram.WithScanOptions(scanOpts...))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create bot")
	}

	bot.Start(ctx)
}
