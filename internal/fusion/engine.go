package fusion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nudge/internal/classifier"
	"nudge/internal/config"
	"nudge/internal/logging"
	"nudge/internal/screen"
	"nudge/internal/services/llm"
	"nudge/internal/vision"
)

const (
	defaultBehavioralScore      = 0.5
	defaultBehavioralConfidence = 0.5
)

// RemoteAnalyzer is the gated remote-analysis collaborator. A nil result
// means the gate declined; a result with Success=false means the call failed
// and the cycle proceeds local-only.
type RemoteAnalyzer interface {
	MaybeAnalyze(ctx context.Context, localConfidence float64, m vision.FaceMetrics, snap screen.Snapshot) *llm.Result
}

// Engine runs the fusion cycle. It is driven from the coordinator's single
// processing goroutine; the mutex protects the state read by the IPC status
// surface, not concurrent fusion cycles (those never overlap).
type Engine struct {
	cfg        config.Fusion
	classifier *classifier.Classifier
	remote     RemoteAnalyzer
	trends     TrendSource
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	active   bool
	inFlight bool
	lastRun  time.Time
	history  []FusionResult
	onResult func(FusionResult)
}

// NewEngine wires a fusion engine. remote and trends may be nil; the engine
// then runs local-only with the neutral behavioral default.
func NewEngine(cfg config.Fusion, cls *classifier.Classifier, remote RemoteAnalyzer, trends TrendSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		classifier: cls,
		remote:     remote,
		trends:     trends,
		logger:     logging.WithComponent(logger, "fusion"),
		now:        time.Now,
	}
}

// WithClock overrides the engine clock, used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// OnResult registers the forwarding hook invoked once per published result.
// Must be set before Start.
func (e *Engine) OnResult(fn func(FusionResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onResult = fn
}

// Start transitions the engine to active and clears session-scoped state.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = true
	e.lastRun = time.Time{}
	e.history = nil
}

// Stop transitions the engine to inactive. Results of any in-flight remote
// call are discarded when it completes.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
}

// Active reports whether fusion cycles are accepted.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// History returns a copy of the bounded result history, oldest first.
func (e *Engine) History() []FusionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]FusionResult, len(e.history))
	copy(out, e.history)
	return out
}

// Latest returns the most recent published result, or nil before the first
// cycle completes.
func (e *Engine) Latest() *FusionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) == 0 {
		return nil
	}
	latest := e.history[len(e.history)-1]
	return &latest
}

// Fuse runs one fusion cycle over the given face metrics and contextual
// snapshot. Returns nil without error when the engine is inactive, when the
// debounce window coalesces the update, or when a cycle is already in flight.
func (e *Engine) Fuse(ctx context.Context, m vision.FaceMetrics, snap screen.Snapshot) (*FusionResult, error) {
	now := e.now()

	e.mu.Lock()
	if !e.active || e.inFlight {
		e.mu.Unlock()
		return nil, nil
	}
	if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.debounce() {
		e.mu.Unlock()
		return nil, nil
	}
	e.lastRun = now
	e.inFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	local := e.analyzeLocal(m, snap, now)

	var remote *llm.Result
	if e.remote != nil && local.Confidence < e.cfg.RemoteTriggerConfidence {
		remote = e.remote.MaybeAnalyze(ctx, local.Confidence, m, snap)
	}

	e.mu.Lock()
	if !e.active {
		// Session ended while the remote call was in flight.
		e.mu.Unlock()
		return nil, nil
	}
	result := e.blend(local, remote, snap, now)
	e.appendLocked(result)
	forward := e.onResult
	e.mu.Unlock()

	if forward != nil {
		forward(result)
	}

	e.logger.Debug("fusion cycle complete",
		logging.Float64(logging.FieldScore, result.Score),
		logging.Float64(logging.FieldConfidence, result.Confidence),
		logging.Int("factors", len(result.Factors)),
		logging.Bool("remote", remote != nil && remote.Success))
	return &result, nil
}

// analyzeLocal computes the weighted local stage: face metrics, classifier,
// environment, and behavioral history, each with its own confidence.
func (e *Engine) analyzeLocal(m vision.FaceMetrics, snap screen.Snapshot, now time.Time) LocalAnalysisResult {
	var factors []AttentionFactor
	var score, confidence float64

	if m.FaceDetected {
		faceScore := m.AttentionScore()
		factors = append(factors, AttentionFactor{
			Type:        FactorFaceMetrics,
			Score:       faceScore,
			Confidence:  m.Confidence,
			Description: "eye openness, gaze, and detector confidence",
		})
		score += e.cfg.FaceWeight * faceScore
		confidence += e.cfg.FaceWeight * m.Confidence
	}

	classification := e.classifier.Classify(m)
	classifierConfidence := e.classifier.Confidence()
	factors = append(factors, AttentionFactor{
		Type:        FactorClassifier,
		Score:       classification.FusionScore(),
		Confidence:  classifierConfidence,
		Description: "classified " + string(classification),
	})
	score += e.cfg.ClassifierWeight * classification.FusionScore()
	confidence += e.cfg.ClassifierWeight * classifierConfidence

	envScore, envDescription := environmentScore(snap, now)
	factors = append(factors, AttentionFactor{
		Type:        FactorEnvironmental,
		Score:       envScore,
		Confidence:  environmentConfidence,
		Description: envDescription,
	})
	score += e.cfg.EnvironmentWeight * envScore
	confidence += e.cfg.EnvironmentWeight * environmentConfidence

	behavioralScore := defaultBehavioralScore
	behavioralConfidence := defaultBehavioralConfidence
	description := "no matching behavioral patterns"
	if e.trends != nil {
		if s, c, matched := e.trends.BehavioralScore(snap.ActiveApp, now); matched > 0 {
			behavioralScore = s
			behavioralConfidence = c
			description = "derived from matching behavioral patterns"
		}
	}
	factors = append(factors, AttentionFactor{
		Type:        FactorBehavioral,
		Score:       behavioralScore,
		Confidence:  behavioralConfidence,
		Description: description,
	})
	score += e.cfg.BehavioralWeight * behavioralScore
	confidence += e.cfg.BehavioralWeight * behavioralConfidence

	return LocalAnalysisResult{
		Score:      clamp01(score),
		Confidence: clamp01(confidence),
		Factors:    factors,
	}
}

// blend folds an optional remote result into the local stage. Remote
// influence is capped regardless of the remote confidence.
func (e *Engine) blend(local LocalAnalysisResult, remote *llm.Result, snap screen.Snapshot, now time.Time) FusionResult {
	score := local.Score
	confidence := local.Confidence
	factors := local.Factors
	var insights []string

	if remote != nil && remote.Success {
		remoteScore := local.Score
		if remote.AttentionScore != nil {
			remoteScore = *remote.AttentionScore
		}
		weight := remote.Confidence
		if weight > e.cfg.RemoteInfluenceCap {
			weight = e.cfg.RemoteInfluenceCap
		}
		score = clamp01(local.Score*(1-weight) + remoteScore*weight)
		if remote.Confidence > confidence {
			confidence = remote.Confidence
		}
		factors = append(factors, AttentionFactor{
			Type:        FactorAPI,
			Score:       remoteScore,
			Confidence:  remote.Confidence,
			Description: "remote analysis",
		})
		insights = append(insights, remote.Factors...)
		insights = append(insights, remote.Recommendations...)
	}

	insights = append(insights, timeOfDayInsight(now))

	return FusionResult{
		Timestamp:  now,
		Score:      score,
		Confidence: clamp01(confidence),
		Factors:    factors,
		Insights:   insights,
		Context:    snap,
	}
}

func (e *Engine) appendLocked(result FusionResult) {
	limit := e.cfg.HistoryLimit
	if limit <= 0 {
		limit = 50
	}
	e.history = append(e.history, result)
	if len(e.history) > limit {
		e.history = e.history[len(e.history)-limit:]
	}
}

func (e *Engine) debounce() time.Duration {
	if e.cfg.DebounceMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(e.cfg.DebounceMillis) * time.Millisecond
}
