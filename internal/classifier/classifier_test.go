package classifier

import (
	"errors"
	"path/filepath"
	"testing"

	"nudge/internal/vision"
)

func attentiveMetrics() vision.FaceMetrics {
	return vision.FaceMetrics{
		FaceDetected: true,
		EyeOpenness:  0.8,
		BlinkRate:    12,
		Gaze:         vision.GazeCenter,
		HeadPose:     vision.PoseForward,
		Confidence:   0.9,
	}
}

func TestRuleFallbackAttentive(t *testing.T) {
	c := New(nil, nil)
	got := c.Classify(attentiveMetrics())
	if got != Attentive {
		t.Fatalf("expected attentive, got %v", got)
	}
	if c.Confidence() != 1.0 {
		t.Fatalf("all four checks hold, confidence should be 1.0, got %v", c.Confidence())
	}
}

func TestRuleFallbackThreeOfFour(t *testing.T) {
	c := New(nil, nil)
	m := attentiveMetrics()
	m.Gaze = vision.GazeLeft // one check fails

	if got := c.Classify(m); got != Attentive {
		t.Fatalf("3 of 4 checks should still be attentive, got %v", got)
	}
	if c.Confidence() != 0.75 {
		t.Fatalf("expected confidence 0.75, got %v", c.Confidence())
	}

	m.BlinkRate = 45 // second check fails
	if got := c.Classify(m); got != Inattentive {
		t.Fatalf("2 of 4 checks should be inattentive, got %v", got)
	}
	if c.Confidence() != 0.5 {
		t.Fatalf("expected confidence 0.5, got %v", c.Confidence())
	}
}

func TestNoFaceIsUnknown(t *testing.T) {
	c := New(nil, nil)
	if got := c.Classify(vision.FaceMetrics{}); got != Unknown {
		t.Fatalf("expected unknown without a face, got %v", got)
	}
	if c.Confidence() != 0 {
		t.Fatalf("expected zero confidence, got %v", c.Confidence())
	}
}

type failingModel struct{}

func (failingModel) Predict(Features) (Classification, float64, error) {
	return Unknown, 0, errors.New("boom")
}

func TestModelFailureFallsBackToRules(t *testing.T) {
	c := New(failingModel{}, nil)
	if got := c.Classify(attentiveMetrics()); got != Attentive {
		t.Fatalf("expected rule fallback on model failure, got %v", got)
	}
}

func TestNominalConfidence(t *testing.T) {
	if Attentive.NominalConfidence() != 0.8 || Inattentive.NominalConfidence() != 0.8 {
		t.Fatal("labeled classes carry nominal confidence 0.8")
	}
	if Unknown.NominalConfidence() != 0 {
		t.Fatal("unknown carries nominal confidence 0")
	}
}

func TestFusionScores(t *testing.T) {
	if Attentive.FusionScore() != 0.8 || Inattentive.FusionScore() != 0.2 || Unknown.FusionScore() != 0.5 {
		t.Fatal("fusion score mapping incorrect")
	}
}

func TestTrainedModelSeparatesSyntheticClasses(t *testing.T) {
	samples := SyntheticSamples(200, 42)
	model, err := LogisticTrainer{}.Train(samples)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	label, p, err := model.Predict(FeaturesFrom(attentiveMetrics()))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if label != Attentive {
		t.Fatalf("expected attentive prediction, got %v (p=%v)", label, p)
	}
	if p <= 0.5 {
		t.Fatalf("expected confident prediction, got %v", p)
	}

	inattentive := Features{
		EyeOpenness: 0.05,
		BlinkRate:   50,
		Gaze:        vision.GazeDownLeft,
		HeadPose:    vision.PoseTurnedLeft,
		Confidence:  0.4,
	}
	label, _, err = model.Predict(inattentive)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if label != Inattentive {
		t.Fatalf("expected inattentive prediction, got %v", label)
	}
}

func TestModelRoundTripThroughDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	trained, err := LogisticTrainer{}.Train(SyntheticSamples(100, 7))
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if err := SaveModel(trained.(*LogisticModel), path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a model")
	}
	label, _, err := loaded.Predict(FeaturesFrom(attentiveMetrics()))
	if err != nil || label != Attentive {
		t.Fatalf("loaded model prediction: %v %v", label, err)
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	model, err := LoadModel(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing model file is not a fault: %v", err)
	}
	if model != nil {
		t.Fatal("expected nil model for missing file")
	}
}
