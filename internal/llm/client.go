package llm

import (
	"context"
	"errors"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// ErrMissingCredential is wrapped by every ConfigError about an absent key.
var ErrMissingCredential = errors.New("missing credential")

// ConfigError reports a provider that cannot be constructed from the current
// configuration. It is the only error the advisor lets through to callers.
type ConfigError struct {
	Provider string
	Setting  string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("llm %s: %s: %v", e.Provider, e.Setting, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Provider, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func missing(provider, setting string) error {
	return &ConfigError{Provider: provider, Setting: setting, Err: ErrMissingCredential}
}
