// Package perf derives a discrete processing level from thermal state,
// memory pressure, and battery charge, throttling the frame-sampling cadence
// and vision quality of the attention pipeline.
package perf
