package vision

import "math"

const (
	// profileVisibilityThreshold: an eye narrower than this share of the face
	// width has rotated out of view.
	profileVisibilityThreshold = 0.15
	// turnThreshold is the nose offset from the face center that reads as a turn.
	turnThreshold = 0.05
	// tiltThreshold is the eye-line slope that reads as a tilt.
	tiltThreshold = 0.1
	// poseWindow is the smoothing window length.
	poseWindow = 5
)

// HeadPoseEstimator classifies head pose from landmark geometry, smoothed by
// majority vote. Classification is mutually exclusive: profile checks run
// before turn checks before tilt checks, first match wins.
type HeadPoseEstimator struct {
	history *smoother[HeadPose]
}

func NewHeadPoseEstimator() *HeadPoseEstimator {
	return &HeadPoseEstimator{history: newSmoother[HeadPose](poseWindow)}
}

// Estimate classifies the current frame and returns the smoothed pose.
func (h *HeadPoseEstimator) Estimate(landmarks *Landmarks) HeadPose {
	raw := classifyPose(landmarks)
	h.history.Add(raw)
	current, _ := h.history.Current()
	return current
}

// Reset clears smoothing history, used when the face is lost.
func (h *HeadPoseEstimator) Reset() {
	h.history.Reset()
}

func classifyPose(landmarks *Landmarks) HeadPose {
	if landmarks == nil || landmarks.LeftEye == nil || landmarks.RightEye == nil {
		return PoseUnknown
	}
	faceWidth := landmarks.BoundingBox.Width
	if faceWidth < minEyelidSpread {
		return PoseUnknown
	}

	leftVisibility := landmarks.LeftEye.Width() / faceWidth
	rightVisibility := landmarks.RightEye.Width() / faceWidth
	if leftVisibility < profileVisibilityThreshold {
		return PoseProfileLeft
	}
	if rightVisibility < profileVisibilityThreshold {
		return PoseProfileRight
	}

	if landmarks.NoseTip != nil {
		faceCenterX := landmarks.BoundingBox.X + faceWidth/2
		offset := (landmarks.NoseTip.X - faceCenterX) / faceWidth
		if offset < -turnThreshold {
			return PoseTurnedLeft
		}
		if offset > turnThreshold {
			return PoseTurnedRight
		}
	}

	leftCenter := landmarks.LeftEye.Center()
	rightCenter := landmarks.RightEye.Center()
	run := rightCenter.X - leftCenter.X
	if math.Abs(run) > minEyelidSpread {
		slope := (rightCenter.Y - leftCenter.Y) / run
		if math.Abs(slope) > tiltThreshold {
			return PoseTilted
		}
	}

	return PoseForward
}
