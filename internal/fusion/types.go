// Package fusion combines the face-signal, classifier, environmental, and
// behavioral signals into a single confidence-weighted attention score, with
// an optional remote analysis blended in under a hard influence cap.
package fusion

import (
	"time"

	"nudge/internal/screen"
)

// FactorType labels the provenance of one contribution to a fused score.
type FactorType string

const (
	FactorFaceMetrics   FactorType = "face_metrics"
	FactorClassifier    FactorType = "ml_classification"
	FactorEnvironmental FactorType = "environmental"
	FactorBehavioral    FactorType = "behavioral"
	FactorAPI           FactorType = "api"
)

// AttentionFactor is one weighted contribution to a fused score, kept for
// provenance in the published result.
type AttentionFactor struct {
	Type        FactorType `json:"type"`
	Score       float64    `json:"score"`
	Confidence  float64    `json:"confidence"`
	Description string     `json:"description"`
}

// LocalAnalysisResult is the purely local stage of a fusion cycle, computed
// before the remote gate is consulted.
type LocalAnalysisResult struct {
	Score      float64
	Confidence float64
	Factors    []AttentionFactor
}

// FusionResult is one published attention estimate. Appended to a bounded
// in-memory history and handed to the pattern analyzer and the store.
type FusionResult struct {
	Timestamp  time.Time         `json:"timestamp"`
	Score      float64           `json:"score"`
	Confidence float64           `json:"confidence"`
	Factors    []AttentionFactor `json:"factors"`
	Insights   []string          `json:"insights"`
	Context    screen.Snapshot   `json:"context"`
}

// TrendSource supplies the behavioral signal for the current context. The
// pattern analyzer implements it; a zero default is substituted when no
// source is wired.
type TrendSource interface {
	// BehavioralScore returns the trend-derived score and confidence for the
	// given application and moment, and how many patterns matched. Zero
	// matches means the neutral default applies.
	BehavioralScore(app string, at time.Time) (score, confidence float64, matched int)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
