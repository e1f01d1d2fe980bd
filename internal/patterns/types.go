// Package patterns mines the fused-result history for recurring attention
// patterns: time-of-day and day-of-week correlations, per-application focus,
// environmental conditions, and a global trend. Detected patterns feed a
// small weight back into fusion and drive the natural-language insight list.
package patterns

import (
	"context"
	"strconv"
	"time"
)

// Trend labels the direction a pattern's attention scores moved across the
// observation window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// PatternType labels what kind of correlation a pattern captures.
type PatternType string

const (
	PatternHighFocusHour PatternType = "high_focus_hour"
	PatternLowFocusHour  PatternType = "low_focus_hour"
	PatternHighFocusDay  PatternType = "high_focus_day"
	PatternLowFocusDay   PatternType = "low_focus_day"
	PatternHighFocusApp  PatternType = "high_focus_app"
	PatternDistractedApp PatternType = "distraction_app"
	PatternNeutralApp    PatternType = "neutral_app"
	PatternFullscreen    PatternType = "fullscreen_mode"
	PatternMultiWindow   PatternType = "multi_window"
	PatternImproving     PatternType = "improving_attention"
	PatternDeclining     PatternType = "declining_attention"
)

// BehavioralPattern is a persisted, long-lived mining result. Patterns are
// merged by (type, application, hour, weekday) and pruned when unseen for
// the retention window.
type BehavioralPattern struct {
	ID                 string        `json:"id"`
	Type               PatternType   `json:"type"`
	Frequency          int           `json:"frequency"`
	AverageInterval    time.Duration `json:"average_interval"`
	TimeOfDay          *int          `json:"time_of_day,omitempty"`
	DayOfWeek          *time.Weekday `json:"day_of_week,omitempty"`
	ApplicationContext string        `json:"application_context,omitempty"`
	Trend              Trend         `json:"trend"`
	Confidence         float64       `json:"confidence"`
	LastObserved       time.Time     `json:"last_observed"`
	Active             bool          `json:"active"`
}

// TrendScore maps the pattern's trend to the behavioral fusion signal.
func (p BehavioralPattern) TrendScore() float64 {
	switch p.Trend {
	case TrendImproving:
		return 0.7
	case TrendDeclining:
		return 0.3
	default:
		return 0.5
	}
}

// mergeKey identifies the persisted pattern a fresh detection updates.
func (p BehavioralPattern) mergeKey() string {
	key := string(p.Type) + "|" + p.ApplicationContext + "|"
	if p.TimeOfDay != nil {
		key += strconv.Itoa(*p.TimeOfDay)
	}
	key += "|"
	if p.DayOfWeek != nil {
		key += strconv.Itoa(int(*p.DayOfWeek))
	}
	return key
}

// Store mirrors mined patterns to durable storage. The analyzer tolerates a
// nil store and logs (rather than fails) persistence errors.
type Store interface {
	UpsertPattern(ctx context.Context, p BehavioralPattern) error
	DeletePattern(ctx context.Context, id string) error
}
