//go:build !linux

package daemon

import (
	"context"

	"log/slog"

	"nudge/internal/config"
	"nudge/internal/monitor"
)

// cameraMonitor is a no-op on platforms without udev.
type cameraMonitor struct{}

func newCameraMonitor(*config.Config, *slog.Logger, *monitor.Monitor) *cameraMonitor {
	return nil
}

func (m *cameraMonitor) Start(context.Context) error { return nil }

func (m *cameraMonitor) Stop() {}

func (m *cameraMonitor) Running() bool { return false }
