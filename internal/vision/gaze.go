package vision

import "math"

const (
	// gazeDeadzone is the offset below which the gaze reads as center.
	gazeDeadzone = 0.02
	// gazeStrong is the offset above which an axis contributes to a diagonal.
	gazeStrong = 0.05
	// gazeWindow is the smoothing window length.
	gazeWindow = 5
	// asymmetryThreshold drives the pupil-free fallback heuristic.
	asymmetryThreshold = 0.2
)

// GazeEstimator classifies gaze direction from eye/pupil geometry, smoothed
// by majority vote over the last few classifications.
type GazeEstimator struct {
	history *smoother[GazeDirection]
}

func NewGazeEstimator() *GazeEstimator {
	return &GazeEstimator{history: newSmoother[GazeDirection](gazeWindow)}
}

// Estimate classifies the current frame and returns the smoothed direction.
func (g *GazeEstimator) Estimate(landmarks *Landmarks) GazeDirection {
	raw := classifyGaze(landmarks)
	g.history.Add(raw)
	current, _ := g.history.Current()
	return current
}

// Reset clears smoothing history, used when the face is lost.
func (g *GazeEstimator) Reset() {
	g.history.Reset()
}

func classifyGaze(landmarks *Landmarks) GazeDirection {
	if landmarks == nil || (landmarks.LeftEye == nil && landmarks.RightEye == nil) {
		return GazeUnknown
	}

	dx, dy, ok := averagePupilOffset(landmarks)
	if !ok {
		return gazeFromAsymmetry(landmarks)
	}
	return gazeFromOffset(dx, dy)
}

// averagePupilOffset computes pupil-minus-eye-center averaged over the eyes
// that carry pupil landmarks.
func averagePupilOffset(landmarks *Landmarks) (dx, dy float64, ok bool) {
	var sx, sy float64
	var n int
	for _, eye := range []*EyeLandmarks{landmarks.LeftEye, landmarks.RightEye} {
		if eye == nil || eye.Pupil == nil {
			continue
		}
		center := eye.Center()
		sx += eye.Pupil.X - center.X
		sy += eye.Pupil.Y - center.Y
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	dx = sanitize(sx/float64(n), 0, -1, 1)
	dy = sanitize(sy/float64(n), 0, -1, 1)
	return dx, dy, true
}

func gazeFromOffset(dx, dy float64) GazeDirection {
	ax, ay := math.Abs(dx), math.Abs(dy)
	if ax < gazeDeadzone && ay < gazeDeadzone {
		return GazeCenter
	}

	// Both axes strongly deflected reads as a diagonal; otherwise the
	// dominant axis wins.
	if ax >= gazeStrong && ay >= gazeStrong {
		switch {
		case dx < 0 && dy < 0:
			return GazeUpLeft
		case dx > 0 && dy < 0:
			return GazeUpRight
		case dx < 0:
			return GazeDownLeft
		default:
			return GazeDownRight
		}
	}
	if ax >= ay {
		if dx < 0 {
			return GazeLeft
		}
		return GazeRight
	}
	if dy < 0 {
		return GazeUp
	}
	return GazeDown
}

// gazeFromAsymmetry is the pupil-free fallback: a glance narrows the eye on
// the gaze side, so a strong openness asymmetry hints at left/right.
func gazeFromAsymmetry(landmarks *Landmarks) GazeDirection {
	if landmarks.LeftEye == nil || landmarks.RightEye == nil {
		return GazeUnknown
	}
	left := eyeOpenness(landmarks.LeftEye, nil)
	right := eyeOpenness(landmarks.RightEye, nil)
	diff := left - right
	switch {
	case diff > asymmetryThreshold:
		return GazeRight
	case diff < -asymmetryThreshold:
		return GazeLeft
	default:
		return GazeCenter
	}
}
