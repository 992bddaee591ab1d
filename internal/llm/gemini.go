package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/auth/oauth2adapt"
	"golang.org/x/oauth2/google"
	"google.golang.org/genai"
)

const (
	geminiScope         = "https://www.googleapis.com/auth/cloud-platform"
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultVertexRegion = "us-central1"
)

// GeminiClient calls Gemini through the genai SDK. System messages are sent
// as the system instruction, assistant turns use the "model" role.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

type GeminiOptions struct {
	// APIKey selects the Gemini Developer API.
	APIKey string
	// CredentialsFile is a service account JSON; it selects Vertex AI.
	CredentialsFile string
	Project         string
	Location        string

	Model       string
	Temperature float32

	// BaseURL overrides the service endpoint, e.g. in tests.
	BaseURL string
}

func NewGemini(ctx context.Context, o GeminiOptions) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: o.BaseURL},
	}
	switch {
	case o.APIKey != "":
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = o.APIKey
	case o.CredentialsFile != "":
		data, err := os.ReadFile(o.CredentialsFile)
		if err != nil {
			return nil, &ConfigError{Provider: ProviderGemini, Setting: "GEMINI_CREDENTIALS_FILE", Err: err}
		}
		creds, err := google.CredentialsFromJSON(ctx, data, geminiScope)
		if err != nil {
			return nil, &ConfigError{Provider: ProviderGemini, Setting: "GEMINI_CREDENTIALS_FILE", Err: err}
		}
		project := o.Project
		if project == "" {
			project = creds.ProjectID
		}
		if project == "" {
			return nil, missing(ProviderGemini, "GEMINI_PROJECT")
		}
		location := o.Location
		if location == "" {
			location = defaultVertexRegion
		}
		cc.Backend = genai.BackendVertexAI
		cc.Credentials = oauth2adapt.AuthCredentialsFromOauth2Credentials(creds)
		cc.Project = project
		cc.Location = location
	default:
		return nil, missing(ProviderGemini, "GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to init gemini client: %w", err)
	}
	model := strings.TrimPrefix(o.Model, "models/")
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model, temperature: o.Temperature}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	temperature := c.temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}

	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, geminiContent("model", m.Content))
		default:
			contents = append(contents, geminiContent("user", m.Content))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = geminiContent("", strings.Join(system, "\n\n"))
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, errors.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	out := Response{Content: sb.String(), Model: c.model}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

func geminiContent(role, text string) *genai.Content {
	return &genai.Content{
		Role:  role,
		Parts: []*genai.Part{{Text: text}},
	}
}
