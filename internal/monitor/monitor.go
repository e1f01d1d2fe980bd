// Package monitor coordinates the attention pipeline: frame down-sampling
// into the vision extractor, fusion cycles, periodic persistence, pattern
// mining, and session lifecycle. All pipeline state mutates on a single
// processing goroutine.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"nudge/internal/config"
	"nudge/internal/fusion"
	"nudge/internal/logging"
	"nudge/internal/notifications"
	"nudge/internal/patterns"
	"nudge/internal/perf"
	"nudge/internal/screen"
	"nudge/internal/services/llm"
	"nudge/internal/session"
	"nudge/internal/store"
	"nudge/internal/vision"
)

// FrameSource supplies raw camera frames. The channel closes when the source
// drains (camera detached or context cancelled).
type FrameSource interface {
	Frames(ctx context.Context) (<-chan []byte, error)
}

// Deps bundles the collaborators the coordinator drives.
type Deps struct {
	Config    *config.Config
	Store     *store.Store
	Sessions  *session.Manager
	Extractor *vision.Extractor
	Screen    *screen.Monitor
	Engine    *fusion.Engine
	Analyzer  *patterns.Analyzer
	Remote    *llm.Service
	Perf      *perf.Controller
	Notifier  notifications.Service
	Nudger    *notifications.Nudger
	Frames    FrameSource
	Logger    *slog.Logger
}

// Monitor is the pipeline coordinator.
type Monitor struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	running       bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	frameInterval int
	frameCount    uint64
	cameraPresent bool
}

// New wires the coordinator and hooks the fusion forwarding path.
func New(deps Deps) *Monitor {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Monitor{
		deps:          deps,
		logger:        logging.WithComponent(logger, "monitor"),
		now:           time.Now,
		frameInterval: deps.Config.Camera.FrameInterval,
		cameraPresent: true,
	}
	if m.frameInterval <= 0 {
		m.frameInterval = 3
	}
	deps.Engine.OnResult(m.onFusionResult)
	return m
}

// Run starts the processing goroutine and the performance controller, and
// blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("monitor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	m.deps.Perf.Start(runCtx)
	levels := m.deps.Perf.Subscribe()
	m.applyLevel(m.deps.Perf.Level())

	var frames <-chan []byte
	if m.deps.Frames != nil {
		ch, err := m.deps.Frames.Frames(runCtx)
		if err != nil {
			m.logger.Warn("camera source unavailable, monitoring context only", logging.Error(err))
		} else {
			frames = ch
		}
	}

	m.wg.Add(1)
	go m.loop(runCtx, frames, levels)

	<-runCtx.Done()
	m.Stop()
	return nil
}

// Stop tears down the processing goroutine; an active session is finished
// and exported first.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if m.deps.Sessions.Active() {
		if _, _, err := m.StopSession(context.Background()); err != nil {
			m.logger.Warn("failed to finish session during shutdown", logging.Error(err))
		}
	}
	cancel()
	m.wg.Wait()
	m.deps.Perf.Stop()
}

// loop is the single coordinating goroutine: frame handling, periodic
// persistence, pattern mining, and level changes all run here.
func (m *Monitor) loop(ctx context.Context, frames <-chan []byte, levels <-chan perf.ProcessingLevel) {
	defer m.wg.Done()

	saveTicker := time.NewTicker(m.saveInterval())
	defer saveTicker.Stop()
	miningTicker := time.NewTicker(m.miningInterval())
	defer miningTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			m.handleFrame(ctx, frame)
		case level := <-levels:
			m.applyLevel(level)
		case <-saveTicker.C:
			m.persistContext(ctx)
		case <-miningTicker.C:
			m.deps.Analyzer.Mine(ctx)
		}
	}
}

// handleFrame down-samples at the source: only every Nth frame reaches the
// vision pipeline, everything else is discarded immediately.
func (m *Monitor) handleFrame(ctx context.Context, frame []byte) {
	m.mu.Lock()
	m.frameCount++
	interval := uint64(m.frameInterval)
	process := m.cameraPresent && m.frameCount%interval == 0
	m.mu.Unlock()

	if !process || !m.deps.Sessions.Active() {
		return
	}

	metrics := m.deps.Extractor.Process(frame)
	snap := m.deps.Screen.Sample()
	m.deps.Remote.Gate().SetThermalState(m.deps.Perf.ThermalSnapshot())
	if _, err := m.deps.Engine.Fuse(ctx, metrics, snap); err != nil {
		m.logger.Warn("fusion cycle failed", logging.Error(err))
	}
}

// onFusionResult is the engine's forwarding hook: persist, mine, nudge.
func (m *Monitor) onFusionResult(result fusion.FusionResult) {
	ctx := context.Background()
	if err := m.deps.Store.AppendAttentionState(ctx, result); err != nil {
		m.logger.Warn("failed to persist attention state", logging.Error(err))
	}
	m.deps.Analyzer.Observe(ctx, result)
	m.deps.Nudger.Observe(ctx, result)
}

// persistContext writes the periodic context snapshot for the active session.
func (m *Monitor) persistContext(ctx context.Context) {
	if !m.deps.Sessions.Active() {
		return
	}
	snap := m.deps.Screen.Sample()
	if err := m.deps.Store.AppendContextSample(ctx, snap); err != nil {
		m.logger.Warn("failed to persist context sample", logging.Error(err))
	}
}

// applyLevel adjusts the frame-skip cadence when the performance controller
// broadcasts a new processing level.
func (m *Monitor) applyLevel(level perf.ProcessingLevel) {
	settings := m.deps.Perf.SettingsFor(level)
	m.mu.Lock()
	m.frameInterval = settings.FrameInterval
	m.mu.Unlock()
	m.logger.Info("processing level applied",
		logging.String(logging.FieldLevel, level.String()),
		logging.Int("frame_interval", settings.FrameInterval))
}

// SetCameraPresent toggles frame processing on hotplug events.
func (m *Monitor) SetCameraPresent(present bool) {
	m.mu.Lock()
	changed := m.cameraPresent != present
	m.cameraPresent = present
	m.mu.Unlock()
	if changed {
		m.logger.Info("camera availability changed", logging.Bool("present", present))
	}
}

func (m *Monitor) saveInterval() time.Duration {
	if m.deps.Config.Session.SaveIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(m.deps.Config.Session.SaveIntervalSeconds) * time.Second
}

func (m *Monitor) miningInterval() time.Duration {
	if m.deps.Config.Patterns.MiningIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(m.deps.Config.Patterns.MiningIntervalSeconds) * time.Second
}
