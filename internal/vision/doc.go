// Package vision extracts face-signal features (eye openness, blink rate,
// gaze direction, head pose) from per-frame landmark geometry supplied by an
// external detector, and derives the face-metrics attention factor.
package vision
