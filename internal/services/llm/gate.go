package llm

import (
	"sync"
	"time"

	"nudge/internal/config"
	"nudge/internal/perf"
	"nudge/internal/screen"
	"nudge/internal/vision"
)

// AnalysisContext carries the derived flags the gate weighs beyond raw
// confidence. It is never persisted.
type AnalysisContext struct {
	IsComplexScenario bool
	IsNovelPattern    bool
}

const (
	complexConfidenceCeiling = 0.5
	complexWindowCount       = 5
)

// DeriveContext computes the gate flags from the current snapshots.
func DeriveContext(m vision.FaceMetrics, ctx screen.Snapshot) AnalysisContext {
	return AnalysisContext{
		IsComplexScenario: m.Confidence < complexConfidenceCeiling ||
			ctx.WindowCount > complexWindowCount ||
			!ctx.ThermalState.Nominal(),
		IsNovelPattern: m.Gaze == vision.GazeUnknown ||
			m.HeadPose == vision.PoseUnknown ||
			ctx.ActiveApp == "",
	}
}

// Gate enforces the remote-call policy: session gating, a daily quota with
// local-midnight rollover, a minimum inter-request interval, thermal gating,
// and the confidence/novelty escalation rules.
//
// The gate is read and advanced only from the fusion cycle; the mutex covers
// the status snapshot read by the IPC surface.
type Gate struct {
	cfg config.Remote
	now func() time.Time

	mu            sync.Mutex
	dailyCount    int
	quotaDay      string
	lastRequest   time.Time
	sessionActive bool
	thermal       perf.ThermalState
	hasCredential bool
}

// NewGate constructs a gate using the wall clock.
func NewGate(cfg config.Remote) *Gate {
	return NewGateWithClock(cfg, time.Now)
}

// NewGateWithClock constructs a gate with an injectable clock, used by tests
// to simulate rate limiting and day rollover.
func NewGateWithClock(cfg config.Remote, now func() time.Time) *Gate {
	return &Gate{
		cfg:           cfg,
		now:           now,
		thermal:       perf.ThermalNominal,
		hasCredential: cfg.Enabled && cfg.APIKey != "",
	}
}

// SetSessionActive flips the session gate.
func (g *Gate) SetSessionActive(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionActive = active
}

// SetThermalState caches the latest thermal observation.
func (g *Gate) SetThermalState(state perf.ThermalState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thermal = state
}

// ShouldUseAPI decides whether to escalate to a remote call. A true return
// consumes the rate-limit slot: the caller is expected to issue the request.
func (g *Gate) ShouldUseAPI(localConfidence float64, ctx AnalysisContext) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.rolloverLocked(now)

	if !g.sessionActive {
		return false
	}
	if !g.availableLocked() {
		return false
	}
	if !g.lastRequest.IsZero() && now.Sub(g.lastRequest) < g.minInterval() {
		return false
	}

	escalate := false
	switch {
	case localConfidence < g.cfg.LowConfidenceThreshold:
		escalate = true
	case ctx.IsComplexScenario && localConfidence < g.cfg.ComplexConfidenceThreshold:
		escalate = true
	case ctx.IsNovelPattern && float64(g.dailyCount) < float64(g.cfg.DailyQuota)*g.cfg.ExplorationShare:
		// Exploration budget: novel patterns may spend the first share of
		// the daily quota even at decent local confidence.
		escalate = true
	}
	if escalate {
		g.lastRequest = now
	}
	return escalate
}

// RecordSuccess counts a completed remote call against the daily quota.
func (g *Gate) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked(g.now())
	g.dailyCount++
}

// Available reports whether the API may be called at all (quota, thermal,
// credential), independent of rate limiting and confidence.
func (g *Gate) Available() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked(g.now())
	return g.availableLocked()
}

// DailyCount returns calls made against today's quota.
func (g *Gate) DailyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked(g.now())
	return g.dailyCount
}

func (g *Gate) availableLocked() bool {
	return g.dailyCount < g.cfg.DailyQuota && g.thermal.Nominal() && g.hasCredential
}

func (g *Gate) minInterval() time.Duration {
	if g.cfg.MinRequestIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(g.cfg.MinRequestIntervalSeconds) * time.Second
}

// rolloverLocked resets the counter when the local calendar day changes.
func (g *Gate) rolloverLocked(now time.Time) {
	day := now.Format("2006-01-02")
	if g.quotaDay != day {
		g.quotaDay = day
		g.dailyCount = 0
	}
}
