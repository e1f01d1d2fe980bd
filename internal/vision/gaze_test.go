package vision

import "testing"

// testEyes builds a symmetric pair of open eyes with pupils displaced by
// (dx, dy) from each eye center.
func testLandmarks(dx, dy float64) *Landmarks {
	left := &EyeLandmarks{
		Outer:  Point{X: 0.30, Y: 0.40},
		Inner:  Point{X: 0.40, Y: 0.40},
		Top:    Point{X: 0.35, Y: 0.37},
		Bottom: Point{X: 0.35, Y: 0.43},
	}
	leftPupil := Point{X: 0.35 + dx, Y: 0.40 + dy}
	left.Pupil = &leftPupil

	right := &EyeLandmarks{
		Outer:  Point{X: 0.70, Y: 0.40},
		Inner:  Point{X: 0.60, Y: 0.40},
		Top:    Point{X: 0.65, Y: 0.37},
		Bottom: Point{X: 0.65, Y: 0.43},
	}
	rightPupil := Point{X: 0.65 + dx, Y: 0.40 + dy}
	right.Pupil = &rightPupil

	nose := Point{X: 0.50, Y: 0.50}
	return &Landmarks{
		LeftEye:     left,
		RightEye:    right,
		NoseTip:     &nose,
		BoundingBox: Rect{X: 0.20, Y: 0.20, Width: 0.60, Height: 0.60},
		Confidence:  0.9,
	}
}

func TestGazeClassification(t *testing.T) {
	cases := []struct {
		name   string
		dx, dy float64
		want   GazeDirection
	}{
		{"center within deadzone", 0.01, -0.01, GazeCenter},
		{"right", 0.04, 0.0, GazeRight},
		{"left", -0.04, 0.01, GazeLeft},
		{"up", 0.0, -0.04, GazeUp},
		{"down", 0.01, 0.04, GazeDown},
		{"strong diagonal up-left", -0.06, -0.06, GazeUpLeft},
		{"strong diagonal down-right", 0.06, 0.06, GazeDownRight},
		{"weak diagonal collapses to dominant axis", 0.04, -0.03, GazeRight},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyGaze(testLandmarks(tc.dx, tc.dy)); got != tc.want {
				t.Fatalf("classifyGaze(%v, %v) = %v, want %v", tc.dx, tc.dy, got, tc.want)
			}
		})
	}
}

func TestGazeSmoothingMajority(t *testing.T) {
	g := NewGazeEstimator()
	inputs := []*Landmarks{
		testLandmarks(0, 0),
		testLandmarks(0.06, 0),
		testLandmarks(0, 0),
		testLandmarks(0, 0),
		testLandmarks(0.06, 0),
	}
	var last GazeDirection
	for _, lm := range inputs {
		last = g.Estimate(lm)
	}
	if last != GazeCenter {
		t.Fatalf("majority of window is center, got %v", last)
	}
}

func TestGazeFallbackAsymmetry(t *testing.T) {
	lm := testLandmarks(0, 0)
	lm.LeftEye.Pupil = nil
	lm.RightEye.Pupil = nil
	// Narrow the right eye vertically: left stays notably more open.
	lm.RightEye.Top = Point{X: 0.65, Y: 0.395}
	lm.RightEye.Bottom = Point{X: 0.65, Y: 0.405}

	if got := classifyGaze(lm); got != GazeRight {
		t.Fatalf("expected asymmetry fallback to classify right, got %v", got)
	}
}

func TestGazeUnknownWithoutEyes(t *testing.T) {
	if got := classifyGaze(nil); got != GazeUnknown {
		t.Fatalf("nil landmarks should be unknown, got %v", got)
	}
	if got := classifyGaze(&Landmarks{}); got != GazeUnknown {
		t.Fatalf("missing eyes should be unknown, got %v", got)
	}
}
