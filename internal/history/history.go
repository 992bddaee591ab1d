package history

import (
	"sync"

	"cyberguard/internal/llm"
)

// Manager keeps per-conversation model context in memory only. Each
// conversation is trimmed to the newest maxMessages entries; zero means
// unbounded.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string][]llm.Message
	maxMessages int
}

func NewManager(maxMessages int) *Manager {
	return &Manager{sessions: make(map[string][]llm.Message), maxMessages: maxMessages}
}

func (m *Manager) Reset(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// AppendExchange records a completed user/assistant pair. Failed exchanges
// are never recorded, so the context only holds turns the model answered.
func (m *Manager) AppendExchange(id, user, assistant string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := append(m.sessions[id],
		llm.Message{Role: llm.RoleUser, Content: user},
		llm.Message{Role: llm.RoleAssistant, Content: assistant},
	)
	if m.maxMessages > 0 && len(msgs) > m.maxMessages {
		// keep pairs aligned so the context never starts with an assistant turn
		drop := len(msgs) - m.maxMessages
		drop += drop % 2
		msgs = append([]llm.Message(nil), msgs[drop:]...)
	}
	m.sessions[id] = msgs
}

// Get returns a copy of the conversation in chronological order.
func (m *Manager) Get(id string) []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	es := m.sessions[id]
	out := make([]llm.Message, len(es))
	copy(out, es)
	return out
}

func (m *Manager) Len(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[id])
}
