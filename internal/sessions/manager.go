// Package sessions keeps per-chat conversation state in memory.
//
// A session is keyed by "channel|chatID" and holds the message history that
// gets replayed to the LLM, the chat's model override, and its running cost
// total. State lives for the process lifetime only.
package sessions

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nextlevelbuilder/telegpt/internal/providers"
)

// Session holds the state of one chat.
type Session struct {
	Key       string
	Messages  []providers.Message
	Model     string
	ShowCost  bool
	TotalCost decimal.Decimal
	Created   time.Time
	Updated   time.Time
}

// Info is a read-only snapshot of session settings.
type Info struct {
	Model     string
	ShowCost  bool
	TotalCost decimal.Decimal
}

// Manager owns all sessions behind one lock. Methods are keyed so callers
// never hold a *Session across goroutines.
type Manager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	systemPrompt string
	defaultModel string
}

// NewManager creates a manager seeding new sessions with systemPrompt and
// defaultModel.
func NewManager(systemPrompt, defaultModel string) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		systemPrompt: systemPrompt,
		defaultModel: defaultModel,
	}
}

// defaultHistory allocates a fresh seed history. Always a new slice: sessions
// must never share backing arrays.
func (m *Manager) defaultHistory() []providers.Message {
	if m.systemPrompt == "" {
		return []providers.Message{}
	}
	return []providers.Message{{Role: providers.RoleSystem, Content: m.systemPrompt}}
}

// get returns the session for key, creating it if needed. Caller holds mu.
func (m *Manager) get(key string) *Session {
	s, ok := m.sessions[key]
	if !ok {
		now := time.Now()
		s = &Session{
			Key:       key,
			Messages:  m.defaultHistory(),
			Model:     m.defaultModel,
			TotalCost: decimal.Zero,
			Created:   now,
			Updated:   now,
		}
		m.sessions[key] = s
	}
	return s
}

// History returns a copy of the session's message list, creating the session
// on first touch.
func (m *Manager) History(key string) []providers.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(key)
	out := make([]providers.Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// AddMessage appends one message to the session's history.
func (m *Manager) AddMessage(key string, msg providers.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(key)
	s.Messages = append(s.Messages, msg)
	s.Updated = time.Now()
}

// RollbackLast removes the most recent message if its role matches. Used to
// undo a user turn when the completion call fails, keeping history consistent
// with what the model has actually answered.
func (m *Manager) RollbackLast(key, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok || len(s.Messages) == 0 {
		return
	}
	last := len(s.Messages) - 1
	if s.Messages[last].Role == role {
		s.Messages = s.Messages[:last]
		s.Updated = time.Now()
	}
}

// SetModel switches the session's model for all future completions.
func (m *Manager) SetModel(key, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(key)
	s.Model = model
	s.Updated = time.Now()
}

// SetShowCost toggles the per-reply cost footer.
func (m *Manager) SetShowCost(key string, show bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(key)
	s.ShowCost = show
	s.Updated = time.Now()
}

// AddCost accumulates cost into the session total and returns the new total.
func (m *Manager) AddCost(key string, cost decimal.Decimal) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(key)
	s.TotalCost = s.TotalCost.Add(cost)
	s.Updated = time.Now()
	return s.TotalCost
}

// Clear resets the session's history to the seed prompt. Model choice, cost
// display, and the accumulated total survive unless resetCost is set.
func (m *Manager) Clear(key string, resetCost bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(key)
	s.Messages = m.defaultHistory()
	if resetCost {
		s.TotalCost = decimal.Zero
	}
	s.Updated = time.Now()
}

// Snapshot returns the session's current settings.
func (m *Manager) Snapshot(key string) Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(key)
	return Info{Model: s.Model, ShowCost: s.ShowCost, TotalCost: s.TotalCost}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
