package ipc

import (
	"nudge/internal/monitor"
	"nudge/internal/patterns"
)

// StartRequest begins a monitoring session.
type StartRequest struct{}

// StartResponse reports whether a session was started.
type StartResponse struct {
	Started   bool   `json:"started"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// StopRequest ends the active monitoring session.
type StopRequest struct{}

// StopResponse reports the stop result and where the session data landed.
type StopResponse struct {
	Stopped    bool   `json:"stopped"`
	SessionID  string `json:"session_id,omitempty"`
	ExportPath string `json:"export_path,omitempty"`
	Message    string `json:"message"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the coordinator snapshot plus the daemon PID.
type StatusResponse struct {
	monitor.Status
	PID int `json:"pid"`
}

// ExportRequest writes the current (or most recent) session to disk.
type ExportRequest struct{}

// ExportResponse carries the written export path.
type ExportResponse struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
}

// Pattern mirrors the analyzer's behavioral pattern DTO for IPC callers.
type Pattern = patterns.BehavioralPattern

// PatternsRequest fetches mined behavioral patterns.
type PatternsRequest struct{}

// PatternsResponse contains active patterns and derived insights.
type PatternsResponse struct {
	Patterns []Pattern `json:"patterns"`
	Insights []string  `json:"insights,omitempty"`
}

// TestNotificationRequest triggers a notification delivery test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
