// Package app wires configuration into the shared components every binary
// needs: the root logger, the advisor and the threat monitor.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"cyberguard/internal/advisor"
	"cyberguard/internal/config"
	"cyberguard/internal/history"
	"cyberguard/internal/llm"
	"cyberguard/internal/monitor"
	"cyberguard/internal/reputation"
	"cyberguard/internal/scanner"
)

// Version is reported to upstream services that ask for a client version.
const Version = "1.0.0"

// LoadEnv reads .env into the process environment. A missing file is not an
// error; the returned error is for the caller to log.
func LoadEnv() error {
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf(".env file not loaded: %w", err)
	}
	return nil
}

// NewLogger builds the root logger. Development gets a console writer,
// everything else JSON lines.
func NewLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(out).
			With().
			Timestamp().
			Logger()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// NewAdvisor builds the advisor for the configured provider and connects it
// once, so a missing credential stops the binary at startup.
func NewAdvisor(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*advisor.Advisor, error) {
	prompt, err := readSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		return nil, err
	}

	factory := llm.NewFactory(cfg)
	provider := string(cfg.LLMProvider)
	adv := advisor.New(
		func(ctx context.Context) (llm.Client, error) { return factory.CreateClient(ctx, provider) },
		advisor.WithSystemPrompt(prompt),
		advisor.WithHistory(history.NewManager(cfg.HistoryMaxMessages)),
		advisor.WithLogger(logger.With().Str("component", "advisor").Logger()),
	)
	if _, err := adv.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", provider, err)
	}
	logger.Info().Str("provider", provider).Msg("advisor connected")
	return adv, nil
}

// NewMonitor builds the configured monitor variant. It is not started.
func NewMonitor(cfg *config.Config, logger zerolog.Logger) (*monitor.Simulator, error) {
	v, err := monitor.LookupVariant(cfg.MonitorVariant)
	if err != nil {
		return nil, err
	}
	return monitor.New(v,
		monitor.WithInterval(cfg.MonitorInterval),
		monitor.WithLogger(logger.With().Str("component", "monitor").Logger()),
	)
}

// readSystemPrompt returns the prompt stored at path, or "" for the built-in
// one when path is empty.
func readSystemPrompt(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ScanOptions returns the scanner options every surface shares. With a Safe
// Browsing key set, safe verdicts are cross-checked against its threat lists.
func ScanOptions(ctx context.Context, cfg *config.Config, logger zerolog.Logger) ([]scanner.Option, error) {
	if cfg.SafeBrowsingAPIKey == "" {
		return nil, nil
	}
	sb, err := reputation.New(ctx, cfg.SafeBrowsingAPIKey, Version)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("safe browsing cross-check enabled")
	return []scanner.Option{scanner.WithReputation(sb)}, nil
}
