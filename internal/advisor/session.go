package advisor

import (
	"context"
	"strings"
	"sync"

	"cyberguard/internal/llm"
	"cyberguard/internal/metrics"
)

type Session struct {
	advisor *Advisor
	id      string
	oneShot bool

	mu     sync.Mutex
	closed bool
}

func (s *Session) ID() string { return s.id }

// Send delivers prompt with the session context and returns the reply text.
// Service failures never surface as errors: they are logged and replaced by
// FallbackServiceError. The only error returned is the connector's, which is
// a configuration problem.
func (s *Session) Send(ctx context.Context, prompt string) (string, error) {
	a := s.advisor
	client, err := a.Connect(ctx)
	if err != nil {
		metrics.Completions.WithLabelValues("config_error").Inc()
		a.logger.Error().Err(err).Str("session", s.id).Msg("advisor is not configured")
		return "", err
	}

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: a.systemPrompt}}
	if !s.oneShot {
		msgs = append(msgs, a.history.Get(s.id)...)
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: prompt})

	start := a.now()
	resp, err := client.Generate(ctx, msgs)
	metrics.CompletionDuration.Observe(a.now().Sub(start).Seconds())
	if err != nil {
		metrics.Completions.WithLabelValues("service_error").Inc()
		a.logger.Error().Err(err).Str("session", s.id).Msg("completion failed")
		return FallbackServiceError, nil
	}

	a.logger.Debug().
		Str("session", s.id).
		Str("model", resp.Model).
		Int("prompt_tokens", resp.PromptTokens).
		Int("completion_tokens", resp.CompletionTokens).
		Int("total_tokens", resp.TotalTokens).
		Msg("completion received")

	if strings.TrimSpace(resp.Content) == "" {
		metrics.Completions.WithLabelValues("empty").Inc()
		return FallbackEmptyReply, nil
	}

	metrics.Completions.WithLabelValues("ok").Inc()
	if !s.oneShot {
		s.mu.Lock()
		if s.closed {
			a.logger.Debug().Str("session", s.id).Msg("reply arrived after close, not stored")
		} else {
			a.history.AppendExchange(s.id, prompt, resp.Content)
		}
		s.mu.Unlock()
	}
	return resp.Content, nil
}

// Reset forgets the session's conversation memory.
func (s *Session) Reset() {
	if !s.oneShot {
		s.advisor.history.Reset(s.id)
	}
}

// Close forgets the memory and stops this handle from storing anything
// again, including replies to prompts still in flight.
func (s *Session) Close() {
	if s.oneShot {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.advisor.history.Reset(s.id)
}
