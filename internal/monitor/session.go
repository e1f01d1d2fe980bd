package monitor

import (
	"context"

	"nudge/internal/logging"
	"nudge/internal/session"
)

// StartSession begins a monitoring session: the engine accepts fusion
// cycles, the remote gate opens, and the nudger resets.
func (m *Monitor) StartSession(ctx context.Context) (session.Session, error) {
	s, err := m.deps.Sessions.Begin()
	if err != nil {
		return session.Session{}, err
	}

	m.deps.Screen.SetSessionID(s.ID)
	m.deps.Remote.Gate().SetSessionActive(true)
	m.deps.Engine.Start()
	m.deps.Nudger.SessionStarted()

	// Seed the session with an immediate context sample so exports are never
	// empty even for very short sessions.
	m.persistContext(ctx)

	m.logger.Info("monitoring started", logging.String(logging.FieldSessionID, s.ID))
	return s, nil
}

// StopSession ends the active session, exports it, and sends the summary
// nudge. Any in-flight remote result is discarded by the engine once the
// session flag drops.
func (m *Monitor) StopSession(ctx context.Context) (session.Session, string, error) {
	m.deps.Engine.Stop()
	m.deps.Remote.Gate().SetSessionActive(false)

	s, err := m.deps.Sessions.Finish()
	if err != nil {
		return session.Session{}, "", err
	}
	m.deps.Screen.SetSessionID("")

	path, err := m.deps.Sessions.Export(ctx, s)
	if err != nil {
		m.logger.Warn("session export failed", logging.Error(err))
		path = ""
	}

	m.summarize(ctx, s)
	m.logger.Info("monitoring stopped",
		logging.String(logging.FieldSessionID, s.ID),
		logging.String("export", path))
	return s, path, nil
}

// summarize sends the end-of-session notification from persisted history.
func (m *Monitor) summarize(ctx context.Context, s session.Session) {
	states, err := m.deps.Store.AttentionStatesBySession(ctx, s.ID)
	if err != nil {
		m.logger.Warn("failed to load session history for summary", logging.Error(err))
		return
	}
	var total float64
	for _, r := range states {
		total += r.Score
	}
	average := 0.0
	if len(states) > 0 {
		average = total / float64(len(states))
	}
	if err := m.deps.Notifier.NotifySessionSummary(ctx, s.End.Sub(s.Start), average, len(states)); err != nil {
		m.logger.Warn("session summary notification failed", logging.Error(err))
	}
}
