package patterns

import (
	"strings"
	"time"

	"nudge/internal/fusion"
)

const (
	highFocusMean = 0.7
	lowFocusMean  = 0.3

	minBucketSamples = 5
	trendDelta       = 0.1

	confidenceBonusSamples = 20
	confidenceBonus        = 0.2

	globalTrendSamples = 20
	globalTrendDelta   = 0.1

	multiWindowThreshold = 3
)

// detect runs every detector over the rolling window and returns the raw
// (unmerged) patterns observed this cycle.
func detect(results []fusion.FusionResult, now time.Time) []BehavioralPattern {
	var found []BehavioralPattern
	found = append(found, detectHourly(results, now)...)
	found = append(found, detectDaily(results, now)...)
	found = append(found, detectApplications(results, now)...)
	found = append(found, detectEnvironment(results, now)...)
	if p := detectGlobalTrend(results, now); p != nil {
		found = append(found, *p)
	}
	return found
}

func detectHourly(results []fusion.FusionResult, now time.Time) []BehavioralPattern {
	byHour := make(map[int][]fusion.FusionResult)
	for _, r := range results {
		hour := r.Timestamp.Hour()
		byHour[hour] = append(byHour[hour], r)
	}

	var found []BehavioralPattern
	for hour, bucket := range byHour {
		patternType, ok := focusLabel(bucket, PatternHighFocusHour, PatternLowFocusHour)
		if !ok {
			continue
		}
		h := hour
		p := fromBucket(patternType, bucket, now)
		p.TimeOfDay = &h
		found = append(found, p)
	}
	return found
}

func detectDaily(results []fusion.FusionResult, now time.Time) []BehavioralPattern {
	byDay := make(map[time.Weekday][]fusion.FusionResult)
	for _, r := range results {
		day := r.Timestamp.Weekday()
		byDay[day] = append(byDay[day], r)
	}

	var found []BehavioralPattern
	for day, bucket := range byDay {
		patternType, ok := focusLabel(bucket, PatternHighFocusDay, PatternLowFocusDay)
		if !ok {
			continue
		}
		d := day
		p := fromBucket(patternType, bucket, now)
		p.DayOfWeek = &d
		found = append(found, p)
	}
	return found
}

// detectApplications labels each sufficiently-sampled application three ways
// by the same mean-score split used for time buckets.
func detectApplications(results []fusion.FusionResult, now time.Time) []BehavioralPattern {
	byApp := make(map[string][]fusion.FusionResult)
	for _, r := range results {
		app := strings.TrimSpace(r.Context.ActiveApp)
		if app == "" {
			continue
		}
		byApp[strings.ToLower(app)] = append(byApp[strings.ToLower(app)], r)
	}

	var found []BehavioralPattern
	for app, bucket := range byApp {
		if len(bucket) < minBucketSamples {
			continue
		}
		patternType := PatternNeutralApp
		switch mean := meanScore(bucket); {
		case mean > highFocusMean:
			patternType = PatternHighFocusApp
		case mean < lowFocusMean:
			patternType = PatternDistractedApp
		}
		p := fromBucket(patternType, bucket, now)
		p.ApplicationContext = app
		found = append(found, p)
	}
	return found
}

func detectEnvironment(results []fusion.FusionResult, now time.Time) []BehavioralPattern {
	var fullscreen, multiWindow []fusion.FusionResult
	for _, r := range results {
		if r.Context.Fullscreen {
			fullscreen = append(fullscreen, r)
		}
		if r.Context.WindowCount > multiWindowThreshold {
			multiWindow = append(multiWindow, r)
		}
	}

	var found []BehavioralPattern
	if patternType, ok := focusLabel(fullscreen, PatternFullscreen, PatternFullscreen); ok {
		found = append(found, fromBucket(patternType, fullscreen, now))
	}
	if patternType, ok := focusLabel(multiWindow, PatternMultiWindow, PatternMultiWindow); ok {
		found = append(found, fromBucket(patternType, multiWindow, now))
	}
	return found
}

// detectGlobalTrend compares the most recent twenty samples to the prior
// twenty; a mean shift beyond the threshold yields a trend pattern.
func detectGlobalTrend(results []fusion.FusionResult, now time.Time) *BehavioralPattern {
	if len(results) < 2*globalTrendSamples {
		return nil
	}
	recent := results[len(results)-globalTrendSamples:]
	prior := results[len(results)-2*globalTrendSamples : len(results)-globalTrendSamples]

	delta := meanScore(recent) - meanScore(prior)
	if delta <= globalTrendDelta && delta >= -globalTrendDelta {
		return nil
	}

	patternType := PatternImproving
	trend := TrendImproving
	if delta < 0 {
		patternType = PatternDeclining
		trend = TrendDeclining
	}
	p := fromBucket(patternType, recent, now)
	p.Trend = trend
	return &p
}

// focusLabel applies the 0.7/0.3 mean split to a bucket. Environment buckets
// pass the same type for both outcomes; hour/day buckets split high/low.
func focusLabel(bucket []fusion.FusionResult, high, low PatternType) (PatternType, bool) {
	if len(bucket) < minBucketSamples {
		return "", false
	}
	switch mean := meanScore(bucket); {
	case mean > highFocusMean:
		return high, true
	case mean < lowFocusMean:
		return low, true
	default:
		return "", false
	}
}

// fromBucket fills the fields every detector computes the same way:
// frequency, inter-observation spacing, halves-comparison trend, and the
// sample-count-boosted confidence.
func fromBucket(patternType PatternType, bucket []fusion.FusionResult, now time.Time) BehavioralPattern {
	p := BehavioralPattern{
		Type:         patternType,
		Frequency:    len(bucket),
		Trend:        bucketTrend(bucket),
		Confidence:   bucketConfidence(bucket),
		LastObserved: now,
		Active:       true,
	}
	if len(bucket) > 1 {
		span := bucket[len(bucket)-1].Timestamp.Sub(bucket[0].Timestamp)
		p.AverageInterval = span / time.Duration(len(bucket)-1)
	}
	return p
}

func bucketTrend(bucket []fusion.FusionResult) Trend {
	if len(bucket) < 2 {
		return TrendStable
	}
	half := len(bucket) / 2
	delta := meanScore(bucket[half:]) - meanScore(bucket[:half])
	switch {
	case delta > trendDelta:
		return TrendImproving
	case delta < -trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func bucketConfidence(bucket []fusion.FusionResult) float64 {
	if len(bucket) == 0 {
		return 0
	}
	var sum float64
	for _, r := range bucket {
		sum += r.Confidence
	}
	confidence := sum / float64(len(bucket))
	if len(bucket) >= confidenceBonusSamples {
		confidence += confidenceBonus
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func meanScore(bucket []fusion.FusionResult) float64 {
	if len(bucket) == 0 {
		return 0
	}
	var sum float64
	for _, r := range bucket {
		sum += r.Score
	}
	return sum / float64(len(bucket))
}
