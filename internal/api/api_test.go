package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/internal/advisor"
	"cyberguard/internal/content"
	"cyberguard/internal/llm"
	"cyberguard/internal/monitor"
	"cyberguard/internal/scanner"
	"cyberguard/internal/transcript"
)

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return llm.Response{Content: f.reply}, nil
}

type testEnv struct {
	srv *httptest.Server
	llm *fakeLLM
	mon *monitor.Simulator
}

func newTestEnv(t *testing.T, adv *advisor.Advisor, fake *fakeLLM) *testEnv {
	t.Helper()
	mon, err := monitor.New(monitor.VariantNetwork)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(zerolog.Nop(), adv, mon, []string{"*"}))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, llm: fake, mon: mon}
}

func newEnv(t *testing.T, reply string) *testEnv {
	fake := &fakeLLM{reply: reply}
	return newTestEnv(t, advisor.NewWithClient(fake), fake)
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) createSession(t *testing.T) sessionResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var s sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	return s
}

func TestHealth(t *testing.T) {
	env := newEnv(t, "ok")
	resp := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestContentCatalogAndSearch(t *testing.T) {
	env := newEnv(t, "ok")

	resp := env.do(t, http.MethodGet, "/api/content", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cat content.Catalog
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cat))
	assert.Len(t, cat.AttackTypes, len(content.AttackTypes()))

	resp = env.do(t, http.MethodGet, "/api/content/search?q=phishing", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res content.Results
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, content.Search("phishing"), res)
}

func TestSessionChatFlow(t *testing.T) {
	env := newEnv(t, "ใช้ 2FA ทุกบัญชี")
	s := env.createSession(t)
	require.NotEmpty(t, s.ID)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, transcript.RoleModel, s.Messages[0].Role)

	resp := env.do(t, http.MethodPost, "/api/sessions/"+s.ID+"/messages", textRequest{Text: "ป้องกันบัญชียังไง"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&after))
	require.Len(t, after.Messages, 3)
	assert.Equal(t, "ป้องกันบัญชียังไง", after.Messages[1].Text)
	assert.Equal(t, "ใช้ 2FA ทุกบัญชี", after.Messages[2].Text)

	resp = env.do(t, http.MethodGet, "/api/sessions/"+s.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Len(t, listed.Messages, 3)
	assert.False(t, listed.Busy)
}

func TestSendMessage_Errors(t *testing.T) {
	env := newEnv(t, "x")
	s := env.createSession(t)

	resp := env.do(t, http.MethodPost, "/api/sessions/"+s.ID+"/messages", textRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/sessions/nope/messages", textRequest{Text: "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/sessions/"+s.ID+"/messages", strings.NewReader("{"))
	require.NoError(t, err)
	raw, err := env.srv.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	assert.Equal(t, 0, env.llm.calls)
}

func TestSendMessage_UnconfiguredAdvisor(t *testing.T) {
	adv := advisor.New(func(context.Context) (llm.Client, error) {
		return nil, &llm.ConfigError{Provider: "gemini", Setting: "GEMINI_API_KEY", Err: llm.ErrMissingCredential}
	})
	env := newTestEnv(t, adv, nil)
	s := env.createSession(t)

	resp := env.do(t, http.MethodPost, "/api/sessions/"+s.ID+"/messages", textRequest{Text: "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// the scanner folds every advisor failure into its connection verdict
	resp = env.do(t, http.MethodPost, "/api/sessions/"+s.ID+"/scan", textRequest{Text: "http://x.example"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res scanner.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Safe)
	assert.Equal(t, scanner.MessageConnectionError, res.Message)
}

func TestScanFlow(t *testing.T) {
	env := newEnv(t, "```json\n{\"safe\": false, \"message\": \"ลิงก์ฟิชชิ่ง\"}\n```")
	s := env.createSession(t)

	resp := env.do(t, http.MethodGet, "/api/sessions/"+s.ID+"/scan", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/sessions/"+s.ID+"/scan", textRequest{Text: "http://secure-bank-login-update.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res scanner.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Safe)
	assert.Equal(t, "ลิงก์ฟิชชิ่ง", res.Message)

	resp = env.do(t, http.MethodGet, "/api/sessions/"+s.ID+"/scan", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var last scanner.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&last))
	assert.Equal(t, res, last)

	// scans never show up in the chat transcript
	resp = env.do(t, http.MethodGet, "/api/sessions/"+s.ID+"/messages", nil)
	var listed sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Len(t, listed.Messages, 1)

	resp = env.do(t, http.MethodPost, "/api/sessions/"+s.ID+"/scan", textRequest{Text: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	env := newEnv(t, "ok")
	s := env.createSession(t)

	resp := env.do(t, http.MethodDelete, "/api/sessions/"+s.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/sessions/"+s.ID+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/sessions/"+s.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMonitorSnapshot(t *testing.T) {
	env := newEnv(t, "ok")
	resp := env.do(t, http.MethodGet, "/api/monitor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st monitor.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, monitor.VariantNetwork.Name, st.Variant)
	assert.Equal(t, monitor.VariantNetwork.ThreatCap, st.ThreatCap)
	assert.LessOrEqual(t, len(st.Alerts), monitor.AlertLogSize)
}

func TestMonitorStream(t *testing.T) {
	env := newEnv(t, "ok")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/monitor/stream"
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close(websocket.StatusNormalClosure, "")

	var first monitor.State
	_, data, err := ws.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &first))
	assert.Equal(t, env.mon.Snapshot().BlockedCount, first.BlockedCount)

	ticked := env.mon.Tick()

	var next monitor.State
	_, data, err = ws.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &next))
	assert.Equal(t, ticked.BlockedCount, next.BlockedCount)
	assert.True(t, ticked.UpdatedAt.Equal(next.UpdatedAt))
}

func TestOriginPatterns(t *testing.T) {
	assert.Equal(t, []string{"*"}, originPatterns([]string{"http://a.test", "*"}))
	assert.Equal(t, []string{"app.test:3000", "b.test"}, originPatterns([]string{"http://app.test:3000", "b.test"}))
}
