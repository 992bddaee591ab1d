package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/internal/config"
	"cyberguard/internal/llm"
	"cyberguard/internal/monitor"
)

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&config.Config{AppEnv: "production", LogLevel: "WARN"}, &buf)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	bad := NewLogger(&config.Config{LogLevel: "loud"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, bad.GetLevel())
}

func TestNewAdvisor_MissingCredentialFailsAtStartup(t *testing.T) {
	cfg := &config.Config{LLMProvider: config.ProviderOpenAI}
	_, err := NewAdvisor(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrMissingCredential)

	var cfgErr *llm.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "OPENAI_API_KEY", cfgErr.Setting)
}

func TestNewAdvisor_CustomSystemPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  custom prompt\n"), 0o600))

	cfg := &config.Config{
		LLMProvider:      config.ProviderOpenAI,
		OpenAIAPIKey:     "sk-test",
		OpenAIBaseURL:    "http://127.0.0.1:0/v1",
		OpenAIModel:      "m",
		SystemPromptPath: path,
	}
	adv, err := NewAdvisor(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "custom prompt", adv.SystemPrompt())

	cfg.SystemPromptPath = filepath.Join(t.TempDir(), "missing.txt")
	_, err = NewAdvisor(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewMonitor(t *testing.T) {
	mon, err := NewMonitor(&config.Config{MonitorVariant: "Ransomware", MonitorInterval: time.Second}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, monitor.VariantRansomware.Name, mon.Variant().Name)
	assert.Equal(t, time.Second, mon.Interval())

	mon, err = NewMonitor(&config.Config{MonitorVariant: "network"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, monitor.VariantNetwork.Interval, mon.Interval())

	_, err = NewMonitor(&config.Config{MonitorVariant: "satellite"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestScanOptions(t *testing.T) {
	opts, err := ScanOptions(context.Background(), &config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = ScanOptions(context.Background(), &config.Config{SafeBrowsingAPIKey: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, opts, 1)
}
