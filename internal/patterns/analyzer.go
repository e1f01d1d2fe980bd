package patterns

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nudge/internal/config"
	"nudge/internal/fusion"
	"nudge/internal/logging"
)

const resultWindow = 24 * time.Hour

// Analyzer accumulates fused results and periodically mines them. Observe is
// called once per fusion cycle from the coordinator; Mine runs on the mining
// timer and on the every-N-results trigger. The mutex covers the reads done
// by the fusion engine (BehavioralScore) and the IPC surface.
type Analyzer struct {
	cfg    config.Patterns
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	results     []fusion.FusionResult
	patterns    map[string]*BehavioralPattern
	insights    []string
	sinceMining int
}

// NewAnalyzer constructs an analyzer. store may be nil for in-memory use.
func NewAnalyzer(cfg config.Patterns, store Store, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		cfg:      cfg,
		store:    store,
		logger:   logging.WithComponent(logger, "patterns"),
		now:      time.Now,
		patterns: make(map[string]*BehavioralPattern),
	}
}

// WithClock overrides the analyzer clock, used by tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Restore seeds the analyzer with previously persisted patterns on startup.
func (a *Analyzer) Restore(patterns []BehavioralPattern) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range patterns {
		restored := p
		a.patterns[restored.mergeKey()] = &restored
	}
}

// Observe appends one fused result to the rolling window and runs a mining
// pass when enough new results accumulated since the last one.
func (a *Analyzer) Observe(ctx context.Context, result fusion.FusionResult) {
	a.mu.Lock()
	a.results = append(a.results, result)
	a.pruneWindowLocked(a.now())
	a.sinceMining++
	trigger := a.sinceMining >= a.miningTrigger()
	a.mu.Unlock()

	if trigger {
		a.Mine(ctx)
	}
}

// Mine runs one full mining pass: detect, merge, prune, persist, and rebuild
// the insight list. Skips silently when the window is too small.
func (a *Analyzer) Mine(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.pruneWindowLocked(now)
	a.sinceMining = 0

	if len(a.results) < a.minResults() {
		return
	}

	detected := detect(a.results, now)
	for _, p := range detected {
		a.mergeLocked(ctx, p)
	}
	a.prunePatternsLocked(ctx, now)
	a.insights = buildInsights(a.activeLocked())

	a.logger.Debug("mining pass complete",
		logging.Int("window_results", len(a.results)),
		logging.Int("detected", len(detected)),
		logging.Int("patterns", len(a.patterns)))
}

// Patterns returns a copy of the active patterns.
func (a *Analyzer) Patterns() []BehavioralPattern {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.activeLocked()
}

// Insights returns the natural-language summary regenerated by the last
// mining pass.
func (a *Analyzer) Insights() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.insights))
	copy(out, a.insights)
	return out
}

// BehavioralScore implements the fusion trend source: patterns matching the
// current application, hour, or weekday vote with their trend-derived score,
// weighted equally.
func (a *Analyzer) BehavioralScore(app string, at time.Time) (float64, float64, int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	app = strings.ToLower(strings.TrimSpace(app))
	hour := at.Hour()
	day := at.Weekday()

	var scoreSum, confidenceSum float64
	matched := 0
	for _, p := range a.patterns {
		if !p.Active || !a.matches(p, app, hour, day) {
			continue
		}
		scoreSum += p.TrendScore()
		confidenceSum += p.Confidence
		matched++
	}
	if matched == 0 {
		return 0, 0, 0
	}
	return scoreSum / float64(matched), confidenceSum / float64(matched), matched
}

func (a *Analyzer) matches(p *BehavioralPattern, app string, hour int, day time.Weekday) bool {
	if p.ApplicationContext != "" {
		return p.ApplicationContext == app
	}
	if p.TimeOfDay != nil {
		return *p.TimeOfDay == hour
	}
	if p.DayOfWeek != nil {
		return *p.DayOfWeek == day
	}
	// Keyless patterns (environment, global trend) always apply.
	return true
}

// mergeLocked folds one freshly detected pattern into persisted state,
// matching on the (type, application, hour, weekday) key.
func (a *Analyzer) mergeLocked(ctx context.Context, detected BehavioralPattern) {
	key := detected.mergeKey()
	existing, ok := a.patterns[key]
	if ok {
		existing.Frequency = detected.Frequency
		existing.AverageInterval = detected.AverageInterval
		existing.Trend = detected.Trend
		existing.Confidence = detected.Confidence
		existing.LastObserved = detected.LastObserved
		existing.Active = true
	} else {
		detected.ID = uuid.NewString()
		existing = &detected
		a.patterns[key] = existing
	}
	a.persistLocked(ctx, *existing)
}

// prunePatternsLocked removes patterns unseen for the retention window.
func (a *Analyzer) prunePatternsLocked(ctx context.Context, now time.Time) {
	cutoff := now.Add(-a.retention())
	for key, p := range a.patterns {
		if p.LastObserved.After(cutoff) {
			continue
		}
		delete(a.patterns, key)
		if a.store == nil {
			continue
		}
		if err := a.store.DeletePattern(ctx, p.ID); err != nil {
			a.logger.Warn("failed to delete stale pattern", logging.String("pattern_id", p.ID), logging.Error(err))
		}
	}
}

func (a *Analyzer) persistLocked(ctx context.Context, p BehavioralPattern) {
	if a.store == nil {
		return
	}
	if err := a.store.UpsertPattern(ctx, p); err != nil {
		a.logger.Warn("failed to persist pattern", logging.String("pattern_id", p.ID), logging.Error(err))
	}
}

// pruneWindowLocked drops results older than the 24h rolling window.
func (a *Analyzer) pruneWindowLocked(now time.Time) {
	cutoff := now.Add(-resultWindow)
	trim := 0
	for trim < len(a.results) && !a.results[trim].Timestamp.After(cutoff) {
		trim++
	}
	if trim > 0 {
		a.results = append([]fusion.FusionResult(nil), a.results[trim:]...)
	}
}

func (a *Analyzer) activeLocked() []BehavioralPattern {
	out := make([]BehavioralPattern, 0, len(a.patterns))
	for _, p := range a.patterns {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out
}

func (a *Analyzer) miningTrigger() int {
	if a.cfg.MiningTriggerCount <= 0 {
		return 20
	}
	return a.cfg.MiningTriggerCount
}

func (a *Analyzer) minResults() int {
	if a.cfg.MinResults <= 0 {
		return 10
	}
	return a.cfg.MinResults
}

func (a *Analyzer) retention() time.Duration {
	if a.cfg.RetentionDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.cfg.RetentionDays) * 24 * time.Hour
}
