// Package screen samples foreground-application and input-activity context
// into per-tick snapshots consumed by the fusion engine and persistence.
package screen

import (
	"sync/atomic"
	"time"

	"nudge/internal/perf"
)

// Snapshot is the contextual data captured at one sampling tick. It is
// immutable once produced.
type Snapshot struct {
	Timestamp        time.Time         `json:"timestamp"`
	ActiveApp        string            `json:"active_app"`
	ActiveWebsite    string            `json:"active_website,omitempty"`
	ScreenBrightness float64           `json:"screen_brightness"`
	AmbientLight     float64           `json:"ambient_light"` // placeholder, not populated
	ThermalState     perf.ThermalState `json:"thermal_state"`
	BatteryLevel     float64           `json:"battery_level"`
	Fullscreen       bool              `json:"fullscreen"`
	WindowCount      int               `json:"window_count"`
	KeyboardActivity int               `json:"keyboard_activity"`
	MouseActivity    int               `json:"mouse_activity"`
	SessionID        string            `json:"session_id"`
}

// ForegroundInfo describes the frontmost application as reported by the OS
// collaborator.
type ForegroundInfo struct {
	AppName     string
	Website     string
	Fullscreen  bool
	WindowCount int
	Brightness  float64
}

// SystemProbe is the OS collaborator contract: a pull-based snapshot of the
// foreground application and display state.
type SystemProbe interface {
	Foreground() (ForegroundInfo, error)
}

// ActivityCounter accumulates keyboard/mouse event counts between sampling
// ticks. Events arrive on the OS capture thread; counters are atomic and
// reset on every drain.
type ActivityCounter struct {
	keyboard atomic.Int64
	mouse    atomic.Int64
}

func (a *ActivityCounter) RecordKeyboard() { a.keyboard.Add(1) }

func (a *ActivityCounter) RecordMouse() { a.mouse.Add(1) }

// Drain returns the counts accumulated since the previous drain and resets them.
func (a *ActivityCounter) Drain() (keyboard, mouse int) {
	return int(a.keyboard.Swap(0)), int(a.mouse.Swap(0))
}

// Monitor assembles snapshots from the system probe, the activity counter,
// and the performance controller's thermal/battery observations.
type Monitor struct {
	probe    SystemProbe
	activity *ActivityCounter
	perf     *perf.Controller
	now      func() time.Time

	sessionID string
}

// NewMonitor constructs a monitor. probe may be nil; snapshots then carry an
// empty application context, which the fusion engine treats as a novel
// pattern.
func NewMonitor(probe SystemProbe, controller *perf.Controller) *Monitor {
	return &Monitor{
		probe:    probe,
		activity: &ActivityCounter{},
		perf:     controller,
		now:      time.Now,
	}
}

// Activity exposes the counter the OS event taps feed.
func (m *Monitor) Activity() *ActivityCounter {
	return m.activity
}

// SetSessionID tags subsequent snapshots with the active session.
func (m *Monitor) SetSessionID(id string) {
	m.sessionID = id
}

// WithClock overrides the monitor clock, used by tests.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// Sample produces one snapshot, draining the activity counters. Probe
// failures degrade to an empty foreground context, never an error.
func (m *Monitor) Sample() Snapshot {
	var fg ForegroundInfo
	if m.probe != nil {
		if info, err := m.probe.Foreground(); err == nil {
			fg = info
		}
	}
	keyboard, mouse := m.activity.Drain()

	thermal := perf.ThermalNominal
	battery := 1.0
	if m.perf != nil {
		thermal = m.perf.ThermalSnapshot()
		battery = m.perf.BatterySnapshot()
	}

	return Snapshot{
		Timestamp:        m.now(),
		ActiveApp:        fg.AppName,
		ActiveWebsite:    fg.Website,
		ScreenBrightness: fg.Brightness,
		ThermalState:     thermal,
		BatteryLevel:     battery,
		Fullscreen:       fg.Fullscreen,
		WindowCount:      fg.WindowCount,
		KeyboardActivity: keyboard,
		MouseActivity:    mouse,
		SessionID:        m.sessionID,
	}
}
