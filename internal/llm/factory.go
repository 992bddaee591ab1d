package llm

import (
	"context"
	"fmt"
	"strings"

	"cyberguard/internal/config"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	GeminiAPIKey          string
	GeminiCredentialsFile string
	GeminiModel           string
	GeminiProject         string
	GeminiLocation        string

	OpenaiAPIKey       string
	OpenaiBaseURL      string
	OpenaiModel        string
	OpenRouterReferrer string
	OpenRouterTitle    string

	YandexOAuthToken string
	YandexFolderID   string

	Temperature float32
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		GeminiAPIKey:          cfg.GeminiAPIKey,
		GeminiCredentialsFile: cfg.GeminiCredentialsFile,
		GeminiModel:           cfg.GeminiModel,
		GeminiProject:         cfg.GeminiProject,
		GeminiLocation:        cfg.GeminiLocation,
		OpenaiAPIKey:          cfg.OpenAIAPIKey,
		OpenaiBaseURL:         cfg.OpenAIBaseURL,
		OpenaiModel:           cfg.OpenAIModel,
		OpenRouterReferrer:    cfg.OpenRouterReferrer,
		OpenRouterTitle:       cfg.OpenRouterTitle,
		YandexOAuthToken:      cfg.YandexOAuthToken,
		YandexFolderID:        cfg.YandexFolderID,
		Temperature:           cfg.Temperature,
	}
}

// CreateClient builds the client for provider. A missing credential is
// reported as a *ConfigError before any network traffic happens.
func (f *Factory) CreateClient(ctx context.Context, provider string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderGemini:
		return NewGemini(ctx, GeminiOptions{
			APIKey:          f.GeminiAPIKey,
			CredentialsFile: f.GeminiCredentialsFile,
			Project:         f.GeminiProject,
			Location:        f.GeminiLocation,
			Model:           f.GeminiModel,
			Temperature:     f.Temperature,
		})
	case ProviderOpenAI:
		if f.OpenaiAPIKey == "" {
			return nil, missing(ProviderOpenAI, "OPENAI_API_KEY")
		}
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, f.OpenaiModel, f.OpenRouterReferrer, f.OpenRouterTitle, f.Temperature), nil
	case ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, &ConfigError{Provider: provider, Err: fmt.Errorf("unknown llm provider: %s", provider)}
	}
}
