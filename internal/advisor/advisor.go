// Package advisor is the completion client shared by every CyberGuard
// surface. An Advisor owns one provider client, created on first use and
// reused afterwards, and hands out per-surface Sessions that carry the fixed
// system instruction and the surface's conversation memory.
package advisor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cyberguard/internal/history"
	"cyberguard/internal/llm"
)

const (
	// FallbackEmptyReply is returned when the service answers with no text.
	FallbackEmptyReply = "ขออภัย ระบบไม่สามารถประมวลผลคำตอบได้ในขณะนี้"
	// FallbackServiceError is returned when the service call fails.
	FallbackServiceError = "เกิดข้อผิดพลาดในการเชื่อมต่อกับ CyberGuard AI กรุณาลองใหม่อีกครั้ง"
)

const DefaultSystemInstruction = `You are "CyberGuard AI", an expert cybersecurity consultant.
Your goal is to educate users about cyber threats, prevention, and safety in the digital world.
The user is viewing a website about Cyber Attacks (Phishing, Malware, Ransomware, DDoS, etc.) based on 2025 trends.
Answer questions in Thai language.
Keep answers concise, easy to understand for general users, but technically accurate.
If asked about performing attacks, refuse politely and pivot to defense/prevention.
Format important keywords in bold.`

// Connector builds the provider client. It is called until it succeeds once.
type Connector func(ctx context.Context) (llm.Client, error)

type Advisor struct {
	connect      Connector
	systemPrompt string
	history      *history.Manager
	logger       zerolog.Logger
	now          func() time.Time

	mu     sync.Mutex
	client llm.Client
}

type Option func(*Advisor)

func WithSystemPrompt(p string) Option {
	return func(a *Advisor) {
		if strings.TrimSpace(p) != "" {
			a.systemPrompt = p
		}
	}
}

func WithHistory(h *history.Manager) Option {
	return func(a *Advisor) { a.history = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Advisor) { a.logger = l }
}

func New(connect Connector, opts ...Option) *Advisor {
	a := &Advisor{
		connect:      connect,
		systemPrompt: DefaultSystemInstruction,
		history:      history.NewManager(20),
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// NewWithClient wraps an already constructed client.
func NewWithClient(c llm.Client, opts ...Option) *Advisor {
	return New(func(context.Context) (llm.Client, error) { return c, nil }, opts...)
}

// Connect creates the provider client if it does not exist yet. Failures are
// not cached, so a later call tries again.
func (a *Advisor) Connect(ctx context.Context) (llm.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}
	if a.connect == nil {
		return nil, &llm.ConfigError{Provider: "none", Err: errors.New("no connector configured")}
	}
	c, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *Advisor) SystemPrompt() string { return a.systemPrompt }

// Session returns the conversation identified by id. Sessions are cheap
// views; two Session values with the same id share memory.
func (a *Advisor) Session(id string) *Session {
	return &Session{advisor: a, id: id}
}

// OneShot returns a session without memory: every prompt is sent with the
// system instruction only. The scanner uses it so verdicts do not depend on
// earlier scans.
func (a *Advisor) OneShot() *Session {
	return &Session{advisor: a, id: "one-shot", oneShot: true}
}
