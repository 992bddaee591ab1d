package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"cyberguard/internal/app"
	"cyberguard/internal/config"
	"cyberguard/internal/mcptools"
)

func main() {
	envErr := app.LoadEnv()

	cfg, err := config.New()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	// stdout carries the protocol
	logger := app.NewLogger(cfg, os.Stderr)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("continuing with process environment")
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

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "cyberguard-mcp",
		Version: app.Version,
	}, nil)
	mcptools.New(adv, mon, logger, scanOpts...).Register(server)

	logger.Info().Msg("starting MCP server on stdin/stdout")
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
