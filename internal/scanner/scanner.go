package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"cyberguard/internal/metrics"
	"cyberguard/internal/reputation"
)

const (
	// MessageParseError is reported when the reply cannot be decoded or
	// validated into a Result.
	MessageParseError = "ไม่สามารถประมวลผลรูปแบบข้อมูลได้ แต่ควรระมัดระวังเป็นพิเศษ (Parse Error)"
	// MessageConnectionError is reported when the completer itself fails.
	MessageConnectionError = "เกิดข้อผิดพลาดในการเชื่อมต่อระบบ AI"
	// messageListed replaces a safe verdict for a link on a threat list.
	messageListed = "ลิงก์นี้อยู่ในรายชื่อเว็บอันตรายของ Google Safe Browsing (%s) ห้ามเปิดหรือกรอกข้อมูลใดๆ"
)

var (
	ErrEmptyInput = errors.New("scanner: nothing to scan")
	ErrBusy       = errors.New("scanner: a scan is already in progress")
)

// Result is the verdict for one scan.
type Result struct {
	Safe    bool   `json:"safe"`
	Message string `json:"message"`
}

type Completer interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Reputation looks the links in a candidate up in a threat list.
type Reputation interface {
	Check(ctx context.Context, text string) ([]reputation.Match, error)
}

// Scanner asks the model to grade a URL or message. Anything it cannot read
// as a well-formed verdict is reported as unsafe.
type Scanner struct {
	completer  Completer
	reputation Reputation
	logger     zerolog.Logger

	mu      sync.Mutex
	busy    bool
	last    Result
	hasLast bool
}

type Option func(*Scanner)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithReputation cross-checks safe verdicts against r. A listed link turns
// the verdict unsafe; a failed lookup leaves it as is.
func WithReputation(r Reputation) Option {
	return func(s *Scanner) { s.reputation = r }
}

func New(c Completer, opts ...Option) *Scanner {
	s := &Scanner{completer: c, logger: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// BuildPrompt embeds candidate verbatim in the scanning instructions.
func BuildPrompt(candidate string) string {
	return fmt.Sprintf(`ทำหน้าที่เป็นระบบสแกนความปลอดภัย (Security Scanner)
วิเคราะห์ข้อความหรือ URL ต่อไปนี้: "%s"

ให้ตอบกลับในรูปแบบ JSON เท่านั้น โดยมีโครงสร้างดังนี้:
{
  "safe": boolean, (true ถ้าดูปลอดภัย, false ถ้าดูมีความเสี่ยงหรือเป็น phishing/scam)
  "message": "คำอธิบายสั้นๆ ภาษาไทย ไม่เกิน 2 บรรทัด"
}
ถ้าไม่แน่ใจให้ตอบตามความน่าจะเป็น`, candidate)
}

// Scan grades candidate. Blank input and re-entry are rejected with
// ErrEmptyInput and ErrBusy and leave Last untouched; every other path
// yields a Result with a non-empty message.
func (s *Scanner) Scan(ctx context.Context, candidate string) (Result, error) {
	if strings.TrimSpace(candidate) == "" {
		return Result{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Result{}, ErrBusy
	}
	s.busy = true
	s.hasLast = false
	s.mu.Unlock()

	res, verdict := s.evaluate(ctx, candidate)
	metrics.Scans.WithLabelValues(verdict).Inc()

	s.mu.Lock()
	s.busy = false
	s.last = res
	s.hasLast = true
	s.mu.Unlock()

	return res, nil
}

func (s *Scanner) evaluate(ctx context.Context, candidate string) (Result, string) {
	raw, err := s.completer.Send(ctx, BuildPrompt(candidate))
	if err != nil {
		s.logger.Error().Err(err).Msg("scan request failed")
		return Result{Safe: false, Message: MessageConnectionError}, "connection_error"
	}

	res, err := Decode(StripFences(raw))
	if err != nil {
		s.logger.Warn().Err(err).Str("reply", truncate(raw, 200)).Msg("scan reply rejected")
		return Result{Safe: false, Message: MessageParseError}, "parse_error"
	}
	if !res.Safe {
		return res, "unsafe"
	}
	if listed, ok := s.crossCheck(ctx, candidate); ok {
		return listed, "listed"
	}
	return res, "safe"
}

func (s *Scanner) crossCheck(ctx context.Context, candidate string) (Result, bool) {
	if s.reputation == nil {
		return Result{}, false
	}
	matches, err := s.reputation.Check(ctx, candidate)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reputation lookup failed, keeping model verdict")
		return Result{}, false
	}
	if len(matches) == 0 {
		return Result{}, false
	}
	s.logger.Info().Str("url", matches[0].URL).Str("threat", matches[0].ThreatType).Msg("link is on a threat list")
	return Result{Safe: false, Message: fmt.Sprintf(messageListed, matches[0].ThreatType)}, true
}

// Last returns the most recent result, if any. A scan in progress hides the
// previous result, as it is about to be replaced.
func (s *Scanner) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

func (s *Scanner) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Clear discards the last result.
func (s *Scanner) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = Result{}
	s.hasLast = false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
