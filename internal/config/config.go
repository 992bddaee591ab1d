package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP surface
	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// LLM settings
	LLMProvider        LLMProvider `env:"LLM_PROVIDER" envDefault:"gemini"`
	Temperature        float32     `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	HistoryMaxMessages int         `env:"HISTORY_MAX_MESSAGES" envDefault:"20"`

	GeminiAPIKey          string `env:"GEMINI_API_KEY"`
	GeminiCredentialsFile string `env:"GEMINI_CREDENTIALS_FILE"`
	GeminiModel           string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiProject         string `env:"GEMINI_PROJECT"`
	GeminiLocation        string `env:"GEMINI_LOCATION" envDefault:"us-central1"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://ai-gateway.vercel.sh/v1"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"anthropic/claude-sonnet-4"`

	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Safe Browsing cross-check for scans (optional)
	SafeBrowsingAPIKey string `env:"SAFE_BROWSING_API_KEY"`

	// Sessions idle for longer are dropped; zero keeps them forever
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Monitor
	MonitorVariant  string        `env:"MONITOR_VARIANT" envDefault:"network"`
	MonitorInterval time.Duration `env:"MONITOR_INTERVAL"`

	// Telegram surface, checked by cmd/bot only
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

// New parses the process environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch LLMProvider(strings.ToLower(string(c.LLMProvider))) {
	case ProviderGemini, ProviderOpenAI, ProviderYandex:
		c.LLMProvider = LLMProvider(strings.ToLower(string(c.LLMProvider)))
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2], got %v", c.Temperature)
	}
	if c.HistoryMaxMessages < 0 {
		return fmt.Errorf("HISTORY_MAX_MESSAGES must not be negative")
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must not be negative")
	}
	if c.MonitorInterval < 0 {
		return fmt.Errorf("MONITOR_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}
