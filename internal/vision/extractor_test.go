package vision

import (
	"errors"
	"math"
	"testing"
	"time"
)

type stubDetector struct {
	landmarks *Landmarks
	err       error
}

func (d *stubDetector) Detect([]byte) (*Landmarks, error) {
	return d.landmarks, d.err
}

func TestExtractorAssemblesSnapshot(t *testing.T) {
	e := NewExtractor(&stubDetector{landmarks: testLandmarks(0, 0)}, nil)
	m := e.Process(nil)

	if !m.FaceDetected {
		t.Fatal("expected face detected")
	}
	if m.Gaze != GazeCenter {
		t.Fatalf("expected center gaze, got %v", m.Gaze)
	}
	if m.HeadPose != PoseForward {
		t.Fatalf("expected forward pose, got %v", m.HeadPose)
	}
	if m.EyeOpenness != 0.6 {
		t.Fatalf("expected openness 0.6, got %v", m.EyeOpenness)
	}
	if m.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", m.Confidence)
	}
}

func TestExtractorDegradesOnDetectorError(t *testing.T) {
	e := NewExtractor(&stubDetector{err: errors.New("no camera")}, nil)
	m := e.Process(nil)

	if m.FaceDetected {
		t.Fatal("detector error must degrade to no-face")
	}
	if m.AttentionScore() != 0 {
		t.Fatalf("no-face score must be 0, got %v", m.AttentionScore())
	}
	if m.Gaze != GazeUnknown || m.HeadPose != PoseUnknown {
		t.Fatalf("expected unknown gaze/pose, got %v/%v", m.Gaze, m.HeadPose)
	}
}

func TestAttentionScoreBounded(t *testing.T) {
	for _, openness := range []float64{0, 0.1, 0.25, 0.5, 1.0, 1.5, 2.0} {
		m := FaceMetrics{
			FaceDetected: true,
			EyeOpenness:  openness,
			Gaze:         GazeCenter,
			Confidence:   0.9,
		}
		score := m.AttentionScore()
		if math.IsNaN(score) || score < 0 || score > 1 {
			t.Fatalf("score out of bounds for openness %v: %v", openness, score)
		}
	}
}

func TestAttentionScoreComposition(t *testing.T) {
	m := FaceMetrics{
		FaceDetected: true,
		EyeOpenness:  0.8,
		Gaze:         GazeCenter,
		Confidence:   0.9,
	}
	// min(0.8*2, 1) = 1.0; gaze center = 1.0; confidence 0.9.
	want := (1.0 + 1.0 + 0.9) / 3
	if got := m.AttentionScore(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got, want)
	}

	m.Gaze = GazeLeft
	want = (1.0 + 0.5 + 0.9) / 3
	if got := m.AttentionScore(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("off-center score = %v, want %v", got, want)
	}
}

func TestAttentionScoreSanitizesNonFinite(t *testing.T) {
	m := FaceMetrics{
		FaceDetected: true,
		EyeOpenness:  math.NaN(),
		Gaze:         GazeCenter,
		Confidence:   math.Inf(1),
	}
	score := m.AttentionScore()
	if math.IsNaN(score) || score < 0 || score > 1 {
		t.Fatalf("non-finite inputs must sanitize, got %v", score)
	}
}

func TestExtractorBlinkRateFlowsIntoSnapshot(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	e := NewExtractor(&stubDetector{}, nil).WithClock(clock.now)

	closed := testLandmarks(0, 0)
	closed.LeftEye.Top = Point{X: 0.35, Y: 0.399}
	closed.LeftEye.Bottom = Point{X: 0.35, Y: 0.401}
	closed.RightEye.Top = Point{X: 0.65, Y: 0.399}
	closed.RightEye.Bottom = Point{X: 0.65, Y: 0.401}

	e.FromLandmarks(testLandmarks(0, 0))
	clock.advance(200 * time.Millisecond)
	e.FromLandmarks(closed)
	clock.advance(200 * time.Millisecond)
	m := e.FromLandmarks(testLandmarks(0, 0))

	if m.BlinkRate != 1 {
		t.Fatalf("expected blink rate 1 after one blink, got %v", m.BlinkRate)
	}
}
