package fusion

import (
	"fmt"
	"strings"
	"time"

	"nudge/internal/screen"
)

// Environmental scoring starts from a neutral base and applies fixed
// adjustments for each contextual signal. The magnitudes are product
// constants, not derived from data.
const (
	environmentBase       = 0.5
	environmentConfidence = 0.6

	productiveAppBonus    = 0.2
	distractingAppPenalty = 0.3
	fullscreenBonus       = 0.1
	manyWindowsPenalty    = 0.1
	activeTypingBonus     = 0.1
	workHoursBonus        = 0.1

	manyWindowsThreshold  = 5
	activeTypingThreshold = 20
	workHoursStart        = 9
	workHoursEnd          = 17
)

var productiveApps = map[string]struct{}{
	"xcode":              {},
	"visual studio code": {},
	"code":               {},
	"intellij idea":      {},
	"goland":             {},
	"terminal":           {},
	"iterm2":             {},
	"pages":              {},
	"numbers":            {},
	"keynote":            {},
	"notion":             {},
	"obsidian":           {},
}

var distractingApps = map[string]struct{}{
	"youtube":   {},
	"netflix":   {},
	"tiktok":    {},
	"instagram": {},
	"twitter":   {},
	"x":         {},
	"facebook":  {},
	"reddit":    {},
	"twitch":    {},
	"discord":   {},
	"messages":  {},
	"steam":     {},
}

// environmentScore rates the contextual snapshot on [0,1] and describes the
// signals that moved it off the neutral base.
func environmentScore(snap screen.Snapshot, at time.Time) (float64, string) {
	score := environmentBase
	var notes []string

	app := strings.ToLower(strings.TrimSpace(snap.ActiveApp))
	if _, ok := productiveApps[app]; ok {
		score += productiveAppBonus
		notes = append(notes, "productive app")
	} else if _, ok := distractingApps[app]; ok {
		score -= distractingAppPenalty
		notes = append(notes, "distracting app")
	}

	if snap.Fullscreen {
		score += fullscreenBonus
		notes = append(notes, "fullscreen")
	}
	if snap.WindowCount > manyWindowsThreshold {
		score -= manyWindowsPenalty
		notes = append(notes, "many windows")
	}
	if snap.KeyboardActivity > activeTypingThreshold {
		score += activeTypingBonus
		notes = append(notes, "active typing")
	}

	hour := at.Hour()
	if hour >= workHoursStart && hour < workHoursEnd {
		score += workHoursBonus
		notes = append(notes, "work hours")
	}

	description := "neutral environment"
	if len(notes) > 0 {
		description = strings.Join(notes, ", ")
	}
	return clamp01(score), description
}

// timeOfDayInsight buckets the hour into five fixed day phases and returns a
// short contextual remark. Exactly one is appended to every fused result.
func timeOfDayInsight(at time.Time) string {
	hour := at.Hour()
	switch {
	case hour >= 5 && hour < 9:
		return "Early morning session: attention typically ramps up over the first hour."
	case hour >= 9 && hour < 12:
		return "Morning work hours: usually the highest-focus stretch of the day."
	case hour >= 12 && hour < 17:
		return "Afternoon work hours: watch for the post-lunch attention dip."
	case hour >= 17 && hour < 22:
		return "Evening session: focus commonly tapers toward the end of the day."
	default:
		return fmt.Sprintf("Late-night session (%02d:00): attention estimates are less reliable.", hour)
	}
}
