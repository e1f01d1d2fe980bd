package vision

import (
	"math"
	"time"
)

const (
	// blinkThreshold separates closed from open eyes on the openness ratio.
	blinkThreshold = 0.25
	// blinkDebounce rejects open transitions faster than a physiological blink.
	blinkDebounce = 100 * time.Millisecond
	// blinkWindow is the fixed window the per-minute rate is computed over.
	blinkWindow = 60 * time.Second
	// opennessBufferCap bounds the rolling sample buffer used for variability.
	opennessBufferCap = 30
)

// BlinkDetector turns a per-frame eye-openness scalar into a blinks-per-minute
// rate. It is owned by a single goroutine; no internal locking.
type BlinkDetector struct {
	now func() time.Time

	samples     []float64
	isEyeClosed bool
	blinkCount  int
	lastBlink   time.Time
}

// NewBlinkDetector constructs a detector using the wall clock.
func NewBlinkDetector() *BlinkDetector {
	return NewBlinkDetectorWithClock(time.Now)
}

// NewBlinkDetectorWithClock constructs a detector with an injectable clock,
// used by tests to simulate debounce and window expiry.
func NewBlinkDetectorWithClock(now func() time.Time) *BlinkDetector {
	return &BlinkDetector{now: now}
}

// Update feeds one eye-openness sample. Non-finite inputs are replaced with
// the neutral default before use.
func (d *BlinkDetector) Update(eyeOpenness float64) {
	eyeOpenness = sanitize(eyeOpenness, neutralOpenness, 0, maxOpenness)

	d.samples = append(d.samples, eyeOpenness)
	if len(d.samples) > opennessBufferCap {
		d.samples = d.samples[1:]
	}

	closed := eyeOpenness < blinkThreshold
	switch {
	case closed && !d.isEyeClosed:
		d.isEyeClosed = true
	case !closed && d.isEyeClosed:
		d.isEyeClosed = false
		now := d.now()
		if !d.lastBlink.IsZero() && now.Sub(d.lastBlink) < blinkDebounce {
			return
		}
		// A gap longer than the rate window restarts the count at 1 rather
		// than accumulating without bound. Sharp reset kept deliberately;
		// see DESIGN.md for the open-question note.
		if d.lastBlink.IsZero() || now.Sub(d.lastBlink) > blinkWindow {
			d.blinkCount = 1
		} else {
			d.blinkCount++
		}
		d.lastBlink = now
	}
}

// CurrentBlinkRate returns blinks per minute over the fixed window. Stale
// state (no blink within the window) reads as 0.
func (d *BlinkDetector) CurrentBlinkRate() float64 {
	if d.lastBlink.IsZero() || d.now().Sub(d.lastBlink) > blinkWindow {
		return 0
	}
	return float64(d.blinkCount) / blinkWindow.Minutes()
}

// OpennessVariability returns the standard deviation of the rolling openness
// buffer; 0 until at least two samples have arrived.
func (d *BlinkDetector) OpennessVariability() float64 {
	n := len(d.samples)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range d.samples {
		sum += v
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range d.samples {
		diff := v - mean
		sq += diff * diff
	}
	return math.Sqrt(sq / float64(n))
}

// Reset clears all blink state, used when the face is lost.
func (d *BlinkDetector) Reset() {
	d.samples = d.samples[:0]
	d.isEyeClosed = false
	d.blinkCount = 0
	d.lastBlink = time.Time{}
}
