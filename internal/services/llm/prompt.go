package llm

import (
	"fmt"
	"strings"

	"nudge/internal/screen"
	"nudge/internal/vision"
)

// AnalysisSystemPrompt instructs the model to judge attention from the
// structured observation block and answer with JSON only.
const AnalysisSystemPrompt = `You are an attention analyst. Given webcam-derived face signals and the user's screen context, estimate how focused the user currently is.

Consider: eye openness and blink rate (fatigue), gaze direction and head pose (engagement with the screen), the foreground application and window clutter (task context), and input activity (active work vs. passive presence).

You must respond ONLY with JSON:
{"attention_score": 0.0-1.0, "confidence": 0.0-1.0, "factors": ["..."], "recommendations": ["..."]}`

// BuildUserPrompt templates the observation block embedded in each remote
// call. No raw imagery ever leaves the device; only these derived fields do.
func BuildUserPrompt(m vision.FaceMetrics, ctx screen.Snapshot) string {
	var b strings.Builder
	b.WriteString("Current observations:\n")
	fmt.Fprintf(&b, "- face_detected: %t\n", m.FaceDetected)
	fmt.Fprintf(&b, "- eye_openness: %.3f\n", m.EyeOpenness)
	fmt.Fprintf(&b, "- blink_rate_per_min: %.1f\n", m.BlinkRate)
	fmt.Fprintf(&b, "- gaze_direction: %s\n", m.Gaze)
	fmt.Fprintf(&b, "- head_pose: %s\n", m.HeadPose)
	fmt.Fprintf(&b, "- detector_confidence: %.2f\n", m.Confidence)
	fmt.Fprintf(&b, "- active_app: %s\n", emptyAs(ctx.ActiveApp, "unknown"))
	fmt.Fprintf(&b, "- active_website: %s\n", emptyAs(ctx.ActiveWebsite, "none"))
	fmt.Fprintf(&b, "- window_count: %d\n", ctx.WindowCount)
	fmt.Fprintf(&b, "- fullscreen: %t\n", ctx.Fullscreen)
	fmt.Fprintf(&b, "- keyboard_activity: %d\n", ctx.KeyboardActivity)
	fmt.Fprintf(&b, "- mouse_activity: %d\n", ctx.MouseActivity)
	fmt.Fprintf(&b, "- local_hour: %d\n", ctx.Timestamp.Hour())
	return b.String()
}

func emptyAs(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
