package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"nudge/internal/vision"
)

// featureCount covers openness, blink rate, gaze-center, pose-forward,
// confidence, plus a bias term.
const featureCount = 5

// LogisticModel is a binary logistic classifier over the five-feature
// vector. Weights serialize to JSON so a trained model survives restarts.
type LogisticModel struct {
	Weights [featureCount]float64 `json:"weights"`
	Bias    float64               `json:"bias"`
	Trained bool                  `json:"trained"`
}

// vectorize normalizes the feature struct into model inputs.
func vectorize(f Features) [featureCount]float64 {
	gazeCenter := 0.0
	if f.Gaze == vision.GazeCenter {
		gazeCenter = 1.0
	}
	poseForward := 0.0
	if f.HeadPose == vision.PoseForward {
		poseForward = 1.0
	}
	blink := f.BlinkRate / 60.0
	if blink > 1 {
		blink = 1
	}
	return [featureCount]float64{
		clamp01(f.EyeOpenness / 2.0),
		blink,
		gazeCenter,
		poseForward,
		clamp01(f.Confidence),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Predict returns the label and the class probability backing it.
func (m *LogisticModel) Predict(f Features) (Classification, float64, error) {
	if m == nil || !m.Trained {
		return Unknown, 0, errors.New("logistic model: not trained")
	}
	x := vectorize(f)
	z := m.Bias
	for i, w := range m.Weights {
		z += w * x[i]
	}
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return Unknown, 0, errors.New("logistic model: non-finite activation")
	}
	if p >= 0.5 {
		return Attentive, p, nil
	}
	return Inattentive, 1 - p, nil
}

// LogisticTrainer fits a LogisticModel by batch gradient descent.
type LogisticTrainer struct {
	LearningRate float64
	Epochs       int
}

// Train fits the model. Deterministic for a fixed sample order.
func (t LogisticTrainer) Train(samples []Sample) (Model, error) {
	if len(samples) == 0 {
		return nil, errors.New("logistic trainer: no samples")
	}
	rate := t.LearningRate
	if rate <= 0 {
		rate = 0.5
	}
	epochs := t.Epochs
	if epochs <= 0 {
		epochs = 200
	}

	model := &LogisticModel{}
	n := float64(len(samples))
	for epoch := 0; epoch < epochs; epoch++ {
		var gradW [featureCount]float64
		var gradB float64
		for _, s := range samples {
			x := vectorize(s.Features)
			z := model.Bias
			for i, w := range model.Weights {
				z += w * x[i]
			}
			p := 1 / (1 + math.Exp(-z))
			y := 0.0
			if s.Label == Attentive {
				y = 1.0
			}
			diff := p - y
			for i := range gradW {
				gradW[i] += diff * x[i]
			}
			gradB += diff
		}
		for i := range model.Weights {
			model.Weights[i] -= rate * gradW[i] / n
		}
		model.Bias -= rate * gradB / n
	}
	model.Trained = true
	return model, nil
}

// SaveModel writes the model weights to path.
func SaveModel(model *LogisticModel, path string) error {
	if model == nil {
		return errors.New("save model: nil model")
	}
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// LoadModel reads model weights from path. A missing file returns (nil, nil)
// so callers fall back to the rules without treating it as a fault.
func LoadModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model: %w", err)
	}
	var model LogisticModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if !model.Trained {
		return nil, nil
	}
	return &model, nil
}
