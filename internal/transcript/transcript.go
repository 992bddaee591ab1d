package transcript

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cyberguard/internal/metrics"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Greeting opens every transcript.
const Greeting = "สวัสดีครับ ผมคือ CyberGuard AI ผู้ช่วยด้านความปลอดภัยไซเบอร์ มีข้อสงสัยเกี่ยวกับการป้องกันภัยคุกคามหรือประเภทของการโจมตีถามได้เลยครับ"

var (
	ErrEmptyInput = errors.New("transcript: empty message")
	ErrBusy       = errors.New("transcript: a reply is already in flight")
)

type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Completer is the reply source, normally an *advisor.Session.
type Completer interface {
	Send(ctx context.Context, prompt string) (string, error)
}

type resetter interface {
	Reset()
}

// Controller owns one chat surface's transcript. At most one reply is in
// flight at a time; sends made while busy are rejected, never queued.
type Controller struct {
	completer Completer
	logger    zerolog.Logger
	now       func() time.Time
	greeting  string

	mu       sync.Mutex
	messages []Message
	busy     bool
}

type Option func(*Controller)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithGreeting(g string) Option {
	return func(c *Controller) { c.greeting = g }
}

func New(completer Completer, opts ...Option) *Controller {
	c := &Controller{
		completer: completer,
		logger:    zerolog.Nop(),
		now:       time.Now,
		greeting:  Greeting,
	}
	for _, o := range opts {
		o(c)
	}
	c.messages = []Message{{Role: RoleModel, Text: c.greeting, Timestamp: c.now()}}
	return c
}

// Send runs a full exchange: the user turn is appended, the completer is
// asked, and the model turn is appended on success. On completer failure the
// transcript keeps the user turn without a reply and the error is returned.
func (c *Controller) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		metrics.ChatTurns.WithLabelValues("empty").Inc()
		return ErrEmptyInput
	}
	if !c.claim() {
		metrics.ChatTurns.WithLabelValues("busy").Inc()
		return ErrBusy
	}
	defer c.release()

	c.append(RoleUser, text)
	if err := c.requestReply(ctx, text); err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		return err
	}
	metrics.ChatTurns.WithLabelValues("ok").Inc()
	return nil
}

// AppendUserTurn records a user message without asking for a reply.
func (c *Controller) AppendUserTurn(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	c.append(RoleUser, text)
	return nil
}

// RequestReply asks the completer about text and appends the model turn.
// It honours the busy guard like Send.
func (c *Controller) RequestReply(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	if !c.claim() {
		return ErrBusy
	}
	defer c.release()
	return c.requestReply(ctx, text)
}

func (c *Controller) requestReply(ctx context.Context, text string) error {
	reply, err := c.completer.Send(ctx, text)
	if err != nil {
		c.logger.Error().Err(err).Msg("chat reply failed")
		return err
	}
	c.append(RoleModel, reply)
	return nil
}

func (c *Controller) claim() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) append(role Role, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: role, Text: text, Timestamp: c.now()})
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Messages returns a copy of the transcript in append order.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Reset drops everything but a fresh greeting and clears the completer's
// context when it keeps one. It fails with ErrBusy while a reply is pending.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.messages = []Message{{Role: RoleModel, Text: c.greeting, Timestamp: c.now()}}
	if r, ok := c.completer.(resetter); ok {
		r.Reset()
	}
	return nil
}
