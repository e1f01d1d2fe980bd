package vision

import (
	"log/slog"
	"math"

	"nudge/internal/logging"
)

const (
	// neutralOpenness substitutes any numerically unstable openness value.
	neutralOpenness = 0.5
	// minEyelidSpread guards the openness ratio against degenerate landmarks.
	minEyelidSpread = 0.001
	// maxOpenness clamps the openness ratio.
	maxOpenness = 2.0
)

func distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// eyeOpenness computes the vertical/horizontal eyelid-distance ratio for one
// eye, clamped to [0, maxOpenness]. Degenerate geometry yields the neutral
// default rather than a non-finite value.
func eyeOpenness(eye *EyeLandmarks, logger *slog.Logger) float64 {
	if eye == nil {
		return neutralOpenness
	}
	horizontal := eye.Width()
	if horizontal < minEyelidSpread {
		if logger != nil {
			logger.Warn("degenerate eyelid spread, using neutral openness",
				logging.Float64("spread", horizontal))
		}
		return neutralOpenness
	}
	ratio := distance(eye.Top, eye.Bottom) / horizontal
	return sanitize(ratio, neutralOpenness, 0, maxOpenness)
}

// sanitize replaces non-finite values with fallback and clamps to [lo, hi].
func sanitize(v, fallback, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return clamp(v, lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
