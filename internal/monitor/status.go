package monitor

import (
	"time"
)

// Status is the point-in-time snapshot served over IPC.
type Status struct {
	Running          bool      `json:"running"`
	SessionActive    bool      `json:"session_active"`
	SessionID        string    `json:"session_id,omitempty"`
	SessionStart     time.Time `json:"session_start,omitzero"`
	ProcessingLevel  string    `json:"processing_level"`
	FrameInterval    int       `json:"frame_interval"`
	CameraPresent    bool      `json:"camera_present"`
	LatestScore      float64   `json:"latest_score"`
	LatestConfidence float64   `json:"latest_confidence"`
	LatestInsights   []string  `json:"latest_insights,omitempty"`
	RemoteAvailable  bool      `json:"remote_available"`
	RemoteDailyCount int       `json:"remote_daily_count"`
	ActivePatterns   int       `json:"active_patterns"`
}

// Status reports the coordinator's current state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	status := Status{
		Running:       m.running,
		FrameInterval: m.frameInterval,
		CameraPresent: m.cameraPresent,
	}
	m.mu.Unlock()

	status.ProcessingLevel = m.deps.Perf.Level().String()
	if s, ok := m.deps.Sessions.Current(); ok {
		status.SessionActive = true
		status.SessionID = s.ID
		status.SessionStart = s.Start
	}
	if latest := m.deps.Engine.Latest(); latest != nil {
		status.LatestScore = latest.Score
		status.LatestConfidence = latest.Confidence
		status.LatestInsights = latest.Insights
	}
	gate := m.deps.Remote.Gate()
	status.RemoteAvailable = gate.Available()
	status.RemoteDailyCount = gate.DailyCount()
	status.ActivePatterns = len(m.deps.Analyzer.Patterns())
	return status
}
