// Package session tracks the active monitoring session and writes the
// end-of-session export document.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"nudge/internal/config"
	"nudge/internal/logging"
	"nudge/internal/store"
)

// ErrSessionActive is returned when a session is started while another is
// still running; only one monitoring session exists at a time.
var ErrSessionActive = errors.New("session already active")

// ErrNoSession is returned by operations that require an active session.
var ErrNoSession = errors.New("no active session")

// Session is one contiguous monitoring interval from start to stop.
type Session struct {
	ID    string    `json:"sessionId"`
	Start time.Time `json:"sessionStart"`
	End   time.Time `json:"sessionEnd,omitempty"`
}

// Manager owns session identity and lifecycle. All mutation happens on the
// coordinator goroutine; the mutex covers IPC status reads.
type Manager struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *Session
	last    *Session
}

// NewManager constructs a session manager.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		store:  st,
		logger: logging.WithComponent(logger, "session"),
		now:    time.Now,
	}
}

// WithClock overrides the manager clock, used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Begin starts a new session and returns its identity.
func (m *Manager) Begin() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return Session{}, ErrSessionActive
	}
	m.current = &Session{
		ID:    uuid.NewString(),
		Start: m.now(),
	}
	m.logger.Info("session started", logging.String(logging.FieldSessionID, m.current.ID))
	return *m.current, nil
}

// Finish ends the active session and returns it with the end time set.
func (m *Manager) Finish() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, ErrNoSession
	}
	finished := *m.current
	finished.End = m.now()
	m.current = nil
	m.last = &finished
	m.logger.Info("session ended",
		logging.String(logging.FieldSessionID, finished.ID),
		logging.Duration("duration", finished.End.Sub(finished.Start)))
	return finished, nil
}

// Current returns the active session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Last returns the most recently finished session, if any.
func (m *Manager) Last() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Session{}, false
	}
	return *m.last, true
}

// Active reports whether a session is running.
func (m *Manager) Active() bool {
	_, ok := m.Current()
	return ok
}
