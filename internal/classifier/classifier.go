// Package classifier provides the local attentive/inattentive classifier
// over face-signal features, with a deterministic rule fallback when no
// trained model is available.
package classifier

import (
	"log/slog"

	"nudge/internal/logging"
	"nudge/internal/vision"
)

// Classification is the coarse attention label.
type Classification string

const (
	Attentive   Classification = "attentive"
	Inattentive Classification = "inattentive"
	Unknown     Classification = "unknown"
)

// NominalConfidence returns the label's fixed nominal confidence. Real
// confidence comes from the classifier state; this is the coarse fallback.
func (c Classification) NominalConfidence() float64 {
	switch c {
	case Attentive, Inattentive:
		return 0.8
	default:
		return 0
	}
}

// FusionScore maps the label onto the classifier factor used in fusion.
func (c Classification) FusionScore() float64 {
	switch c {
	case Attentive:
		return 0.8
	case Inattentive:
		return 0.2
	default:
		return 0.5
	}
}

// Features is the five-feature input vector derived from a FaceMetrics
// snapshot.
type Features struct {
	EyeOpenness float64
	BlinkRate   float64
	Gaze        vision.GazeDirection
	HeadPose    vision.HeadPose
	Confidence  float64
}

// FeaturesFrom extracts the feature vector from a snapshot.
func FeaturesFrom(m vision.FaceMetrics) Features {
	return Features{
		EyeOpenness: m.EyeOpenness,
		BlinkRate:   m.BlinkRate,
		Gaze:        m.Gaze,
		HeadPose:    m.HeadPose,
		Confidence:  m.Confidence,
	}
}

// Model is the trained-classifier capability. Predict returns the label and
// the class probability backing it.
type Model interface {
	Predict(Features) (Classification, float64, error)
}

// Trainer produces a Model from labeled samples; training is an offline
// concern and never runs on the real-time path.
type Trainer interface {
	Train(samples []Sample) (Model, error)
}

// Sample is one labeled training example.
type Sample struct {
	Features Features
	Label    Classification
}

// Rule-fallback thresholds.
const (
	ruleMinOpenness   = 0.3
	ruleMinConfidence = 0.6
	ruleMaxBlinkRate  = 30.0
	ruleRequiredTrue  = 3
	ruleCheckCount    = 4
)

// Classifier runs the trained model when one is present and otherwise falls
// back to the deterministic rules. It is owned by the fusion cycle; the
// published confidence is read through Confidence().
type Classifier struct {
	model      Model
	logger     *slog.Logger
	confidence float64
}

// New constructs a classifier. model may be nil.
func New(model Model, logger *slog.Logger) *Classifier {
	return &Classifier{
		model:  model,
		logger: logging.WithComponent(logger, "classifier"),
	}
}

// SwapModel installs a newly trained model; nil reverts to the rule fallback.
func (c *Classifier) SwapModel(model Model) {
	c.model = model
}

// Classify labels one snapshot and publishes the model confidence.
func (c *Classifier) Classify(m vision.FaceMetrics) Classification {
	if !m.FaceDetected {
		c.confidence = 0
		return Unknown
	}
	features := FeaturesFrom(m)

	if c.model != nil {
		label, probability, err := c.model.Predict(features)
		if err == nil {
			c.confidence = probability
			return label
		}
		c.logger.Warn("model prediction failed, using rule fallback", logging.Error(err))
	}

	label, confidence := classifyByRules(features)
	c.confidence = confidence
	return label
}

// Confidence returns the confidence behind the most recent classification.
func (c *Classifier) Confidence() float64 {
	return c.confidence
}

// classifyByRules applies the four boolean checks: attentive iff at least
// three hold, confidence = fraction of checks that hold.
func classifyByRules(f Features) (Classification, float64) {
	checks := [ruleCheckCount]bool{
		f.EyeOpenness > ruleMinOpenness,
		f.Confidence > ruleMinConfidence,
		f.Gaze == vision.GazeCenter,
		f.BlinkRate < ruleMaxBlinkRate,
	}
	trueCount := 0
	for _, ok := range checks {
		if ok {
			trueCount++
		}
	}
	label := Inattentive
	if trueCount >= ruleRequiredTrue {
		label = Attentive
	}
	return label, float64(trueCount) / ruleCheckCount
}
