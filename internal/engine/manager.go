package engine

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Manager hands out one engine per active session and tears it down on
// logout. The cache is owned by exactly one session at a time; a user who
// logs in again after a logout gets a fresh engine and a fresh load.
type Manager struct {
	store  Store
	logger *log.Logger

	mu      sync.Mutex
	engines map[string]*Engine
}

func NewManager(store Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Manager{
		store:   store,
		logger:  logger,
		engines: make(map[string]*Engine),
	}
}

// Activate returns the session's engine, creating and loading it if the
// session has none yet. The initial load failing is not fatal: the engine
// starts with an empty cache and the failure is logged.
func (m *Manager) Activate(ctx context.Context, session core.Session) *Engine {
	m.mu.Lock()
	eng, ok := m.engines[session.UserID]
	if !ok {
		eng = New(m.store, session, m.logger)
		m.engines[session.UserID] = eng
	}
	m.mu.Unlock()

	// Errors are already logged by the engine; consumers see an empty
	// cache rather than a crash. Concurrent first-sight callers block
	// here until the one load finishes.
	eng.loadOnce.Do(func() { _ = eng.Load(ctx) })
	return eng
}

// Deactivate discards the session's engine and its cache.
func (m *Manager) Deactivate(userID string) {
	m.mu.Lock()
	eng, ok := m.engines[userID]
	delete(m.engines, userID)
	m.mu.Unlock()

	if ok {
		eng.Reset()
	}
}

// Active reports how many sessions currently hold an engine.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}
