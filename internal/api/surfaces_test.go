package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/internal/advisor"
	"cyberguard/internal/history"
	"cyberguard/internal/llm"
	"cyberguard/internal/reputation"
	"cyberguard/internal/scanner"
	"cyberguard/internal/scheduler"
)

type gatedLLM struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	close(g.entered)
	<-g.release
	return llm.Response{Content: "คำตอบที่มาช้า"}, nil
}

func TestRemove_ReplyAfterDeleteLeavesNoMemory(t *testing.T) {
	gate := &gatedLLM{entered: make(chan struct{}), release: make(chan struct{})}
	h := history.NewManager(0)
	s := newSurfaces(advisor.NewWithClient(gate, advisor.WithHistory(h)), zerolog.Nop())
	sf := s.create()

	done := make(chan error)
	go func() { done <- sf.chat.Send(context.Background(), "สวัสดี") }()

	<-gate.entered
	require.True(t, s.remove(sf.id))
	close(gate.release)

	require.NoError(t, <-done)
	assert.Equal(t, 0, h.Len(sf.id))
	assert.Equal(t, 0, s.count())
}

func TestSweep_RemovesIdleSurfaces(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newSurfaces(advisor.NewWithClient(&fakeLLM{reply: "ok"}), zerolog.Nop())
	s.now = func() time.Time { return now }

	stale := s.create()
	now = now.Add(30 * time.Minute)
	fresh := s.create()

	now = now.Add(45 * time.Minute)
	_, ok := s.get(fresh.id)
	require.True(t, ok)

	assert.Equal(t, 1, s.sweep(time.Hour))
	_, ok = s.get(stale.id)
	assert.False(t, ok)
	_, ok = s.get(fresh.id)
	assert.True(t, ok)
	assert.Equal(t, 0, s.sweep(time.Hour))
}

func TestSweep_KeepsBusySurface(t *testing.T) {
	gate := &gatedLLM{entered: make(chan struct{}), release: make(chan struct{})}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newSurfaces(advisor.NewWithClient(gate), zerolog.Nop())
	s.now = func() time.Time { return now }
	sf := s.create()

	done := make(chan error)
	go func() { done <- sf.chat.Send(context.Background(), "รอก่อน") }()
	<-gate.entered

	now = now.Add(3 * time.Hour)
	assert.Equal(t, 0, s.sweep(time.Hour))

	close(gate.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, s.sweep(time.Hour))
}

func TestWithSessionExpiry_SweepsOnSchedule(t *testing.T) {
	sched := scheduler.New(zerolog.Nop())
	defer sched.Stop()

	router := NewRouter(zerolog.Nop(), advisor.NewWithClient(&fakeLLM{reply: "ok"}), nil, []string{"*"},
		WithSessionExpiry(sched, 20*time.Millisecond))
	sched.Start()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		var body struct {
			Surfaces int `json:"surfaces"`
		}
		return json.Unmarshal(rec.Body.Bytes(), &body) == nil && body.Surfaces == 0
	}, 2*time.Second, 10*time.Millisecond)
}

type listedReputation struct{}

func (listedReputation) Check(ctx context.Context, text string) ([]reputation.Match, error) {
	return []reputation.Match{{URL: text, ThreatType: "MALWARE"}}, nil
}

func TestWithScanOptions_AppliesToNewSessions(t *testing.T) {
	router := NewRouter(zerolog.Nop(), advisor.NewWithClient(&fakeLLM{reply: `{"safe":true,"message":"ok"}`}), nil, []string{"*"},
		WithScanOptions(scanner.WithReputation(listedReputation{})))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var s sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/scan", strings.NewReader(`{"text":"http://malware.example"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res scanner.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Safe)
	assert.Contains(t, res.Message, "MALWARE")
}
