package vision

import (
	"log/slog"
	"math"
	"time"

	"nudge/internal/logging"
)

// opennessScale maps the eyelid ratio onto the [0,1] attention contribution;
// a fully open eye sits around 0.5 on the ratio.
const opennessScale = 2.0

// Detector is the landmark collaborator contract: one frame in, landmarks
// out, or nil when no face is present.
type Detector interface {
	Detect(frame []byte) (*Landmarks, error)
}

// Extractor assembles a FaceMetrics snapshot per accepted frame, feeding the
// blink, gaze, and head-pose estimators. It is owned by the vision worker
// goroutine.
type Extractor struct {
	detector Detector
	blink    *BlinkDetector
	gaze     *GazeEstimator
	pose     *HeadPoseEstimator
	logger   *slog.Logger
	now      func() time.Time
}

// NewExtractor constructs an extractor over the given landmark detector.
func NewExtractor(detector Detector, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		detector: detector,
		blink:    NewBlinkDetector(),
		gaze:     NewGazeEstimator(),
		pose:     NewHeadPoseEstimator(),
		logger:   logging.WithComponent(logger, "vision"),
		now:      time.Now,
	}
}

// WithClock overrides the extractor clock (and the blink detector's), used
// by tests.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	e.blink = NewBlinkDetectorWithClock(now)
	return e
}

// Process runs landmark detection on one accepted frame and returns the
// resulting snapshot. Detection failure or an absent face degrades to a
// no-face snapshot, never an error.
func (e *Extractor) Process(frame []byte) FaceMetrics {
	landmarks, err := e.detector.Detect(frame)
	if err != nil {
		e.logger.Warn("landmark detection failed", logging.Error(err))
		landmarks = nil
	}
	return e.FromLandmarks(landmarks)
}

// FromLandmarks assembles a snapshot from an already-detected landmark set.
func (e *Extractor) FromLandmarks(landmarks *Landmarks) FaceMetrics {
	now := e.now()
	if landmarks == nil {
		e.blink.Reset()
		e.gaze.Reset()
		e.pose.Reset()
		return NoFace(now)
	}

	left := eyeOpenness(landmarks.LeftEye, e.logger)
	right := eyeOpenness(landmarks.RightEye, e.logger)
	average := sanitize((left+right)/2, neutralOpenness, 0, maxOpenness)

	e.blink.Update(average)

	return FaceMetrics{
		Timestamp:        now,
		FaceDetected:     true,
		BoundingBox:      landmarks.BoundingBox,
		LeftEyeOpenness:  left,
		RightEyeOpenness: right,
		EyeOpenness:      average,
		BlinkRate:        e.blink.CurrentBlinkRate(),
		Gaze:             e.gaze.Estimate(landmarks),
		HeadPose:         e.pose.Estimate(landmarks),
		Confidence:       clamp(landmarks.Confidence, 0, 1),
		Landmarks:        landmarks,
	}
}

// AttentionScore derives the face-metrics fusion factor: the average of the
// scaled eye openness, a gaze-centering term, and the detector confidence.
// Always finite and within [0,1]; 0 when no face was detected.
func (m FaceMetrics) AttentionScore() float64 {
	if !m.FaceDetected {
		return 0
	}
	openness := math.Min(sanitizeZero(m.EyeOpenness)*opennessScale, 1.0)
	gazeTerm := 0.5
	if m.Gaze == GazeCenter {
		gazeTerm = 1.0
	}
	confidence := clamp(sanitizeZero(m.Confidence), 0, 1)

	score := (openness + gazeTerm + confidence) / 3
	return clamp(sanitizeZero(score), 0, 1)
}

// sanitizeZero substitutes 0 for non-finite intermediates.
func sanitizeZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
