package vision

import "time"

// Point is a normalized landmark coordinate in [0,1] image space.
type Point struct {
	X float64
	Y float64
}

// Rect is a normalized bounding box.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// EyeLandmarks carries the four eyelid extremes and, when the detector
// provides one, the pupil position.
type EyeLandmarks struct {
	Outer  Point
	Inner  Point
	Top    Point
	Bottom Point
	Pupil  *Point
}

// Width returns the horizontal eyelid spread.
func (e EyeLandmarks) Width() float64 {
	return distance(e.Outer, e.Inner)
}

// Center returns the midpoint between the eye corners.
func (e EyeLandmarks) Center() Point {
	return Point{
		X: (e.Outer.X + e.Inner.X) / 2,
		Y: (e.Outer.Y + e.Inner.Y) / 2,
	}
}

// Landmarks is the per-frame payload supplied by the landmark detector
// collaborator. Any field may be absent on a partial detection.
type Landmarks struct {
	LeftEye     *EyeLandmarks
	RightEye    *EyeLandmarks
	NoseTip     *Point
	BoundingBox Rect
	Confidence  float64
}

// GazeDirection is the discrete gaze category.
type GazeDirection string

const (
	GazeCenter    GazeDirection = "center"
	GazeLeft      GazeDirection = "left"
	GazeRight     GazeDirection = "right"
	GazeUp        GazeDirection = "up"
	GazeDown      GazeDirection = "down"
	GazeUpLeft    GazeDirection = "up_left"
	GazeUpRight   GazeDirection = "up_right"
	GazeDownLeft  GazeDirection = "down_left"
	GazeDownRight GazeDirection = "down_right"
	GazeUnknown   GazeDirection = "unknown"
)

// HeadPose is the discrete head-pose category.
type HeadPose string

const (
	PoseForward      HeadPose = "forward"
	PoseProfileLeft  HeadPose = "profile_left"
	PoseProfileRight HeadPose = "profile_right"
	PoseTurnedLeft   HeadPose = "turned_left"
	PoseTurnedRight  HeadPose = "turned_right"
	PoseTilted       HeadPose = "tilted"
	PoseUnknown      HeadPose = "unknown"
)

// FaceMetrics is the immutable per-frame snapshot produced by the extractor.
type FaceMetrics struct {
	Timestamp        time.Time
	FaceDetected     bool
	BoundingBox      Rect
	LeftEyeOpenness  float64
	RightEyeOpenness float64
	EyeOpenness      float64
	BlinkRate        float64
	Gaze             GazeDirection
	HeadPose         HeadPose
	Confidence       float64
	Landmarks        *Landmarks
}

// NoFace returns a snapshot for a frame where no face was detected.
func NoFace(now time.Time) FaceMetrics {
	return FaceMetrics{
		Timestamp: now,
		Gaze:      GazeUnknown,
		HeadPose:  PoseUnknown,
	}
}
