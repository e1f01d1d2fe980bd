//go:build linux

package daemon

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"log/slog"

	"github.com/pilebones/go-udev/netlink"

	"nudge/internal/config"
	"nudge/internal/logging"
	"nudge/internal/monitor"
)

// cameraMonitor listens for udev netlink events on the video4linux subsystem
// and flips frame processing when the configured camera attaches or detaches.
type cameraMonitor struct {
	logger *slog.Logger
	target *monitor.Monitor
	device string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newCameraMonitor(cfg *config.Config, logger *slog.Logger, target *monitor.Monitor) *cameraMonitor {
	if cfg == nil || target == nil {
		return nil
	}

	device := strings.TrimSpace(cfg.Camera.Device)
	if device == "" {
		return nil
	}

	return &cameraMonitor{
		logger: logging.WithComponent(logger, "camera-monitor"),
		target: target,
		device: device,
	}
}

// Start begins listening for udev netlink events.
func (m *cameraMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		// Non-fatal: without netlink the camera is assumed present and frame
		// handling degrades to whatever the source delivers.
		m.logger.Warn("failed to connect to netlink socket; camera hotplug detection disabled",
			logging.Error(err))
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	// Pass quit channel to goroutine to avoid reading m.quit without lock
	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("camera hotplug monitor started", logging.String("device", m.device))
	return nil
}

// Stop shuts down the netlink monitor.
func (m *cameraMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false
	m.logger.Info("camera hotplug monitor stopped")
}

// Running reports whether the netlink monitor is active.
func (m *cameraMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// monitorLoop reads netlink events and toggles camera presence.
func (m *cameraMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// buildMatcher matches add/remove events on the video4linux subsystem.
func (m *cameraMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

// handleEvent processes a matched uevent.
func (m *cameraMonitor) handleEvent(uevent netlink.UEvent) {
	devname := m.extractDeviceName(uevent)
	if devname == "" || devname != m.device {
		m.logger.Debug("ignoring event for non-configured device",
			logging.String("device", devname),
			logging.String("configured_device", m.device))
		return
	}

	switch string(uevent.Action) {
	case "add":
		m.logger.Info("camera attached", logging.String("device", devname))
		m.target.SetCameraPresent(true)
	case "remove":
		m.logger.Info("camera detached", logging.String("device", devname))
		m.target.SetCameraPresent(false)
	}
}

// extractDeviceName resolves the /dev path for the event.
func (m *cameraMonitor) extractDeviceName(uevent netlink.UEvent) string {
	devname := uevent.Env["DEVNAME"]
	if devname == "" {
		return ""
	}
	if !strings.HasPrefix(devname, "/") {
		devname = filepath.Join("/dev", devname)
	}
	return devname
}
