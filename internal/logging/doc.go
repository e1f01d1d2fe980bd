// Package logging provides the shared slog construction and the standardized
// structured field vocabulary used across the attention pipeline.
package logging
