package session

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"rbxstore-api/internal/metrics"
	"rbxstore-api/internal/model"
	"rbxstore-api/internal/pricing"
	"rbxstore-api/pkg/uid"
)

// Manager owns the open sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// NewManager creates an empty manager.
func NewManager(deps Deps, cfg Config) *Manager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		cfg:      cfg.withDefaults(),
		logger:   deps.Logger.Named("sessions"),
	}
}

// Packages returns the preset packages, smallest first.
func (m *Manager) Packages() []model.Package {
	out := make([]model.Package, len(m.cfg.Packages))
	copy(out, m.cfg.Packages)
	sort.Slice(out, func(i, j int) bool { return out[i].Robux < out[j].Robux })
	return out
}

// MaxRobux returns the largest quantity a session accepts.
func (m *Manager) MaxRobux() int64 {
	return pricing.Limit(m.cfg.MaxRobux)
}

// Create opens and starts a new session.
func (m *Manager) Create() *Session {
	s := New(uid.New(), m.deps, m.cfg)

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	s.Start()
	m.logger.Debug("session created", zap.String("session_id", s.ID), zap.Int("active", n))
	return s
}

// Get returns the session and marks it as seen.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.Closed() {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Delete closes and forgets the session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	metrics.ActiveSessions.Set(float64(n))
	s.Close()
	return nil
}

// ReapIdle closes sessions not seen for maxIdle and returns how many it closed.
func (m *Manager) ReapIdle(maxIdle time.Duration) int {
	cutoff := m.cfg.Clock.Now().Add(-maxIdle)

	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) || s.Closed() {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	metrics.ActiveSessions.Set(float64(n))
	return len(idle)
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	metrics.ActiveSessions.Set(0)
}
