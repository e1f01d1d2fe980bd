package ipc_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"nudge/internal/classifier"
	"nudge/internal/config"
	"nudge/internal/fusion"
	"nudge/internal/ipc"
	"nudge/internal/logging"
	"nudge/internal/monitor"
	"nudge/internal/notifications"
	"nudge/internal/patterns"
	"nudge/internal/perf"
	"nudge/internal/screen"
	"nudge/internal/services/llm"
	"nudge/internal/session"
	"nudge/internal/testsupport"
	"nudge/internal/vision"
)

type stubDetector struct{}

func (stubDetector) Detect([]byte) (*vision.Landmarks, error) {
	left := &vision.EyeLandmarks{
		Outer:  vision.Point{X: 0.30, Y: 0.40},
		Inner:  vision.Point{X: 0.40, Y: 0.40},
		Top:    vision.Point{X: 0.35, Y: 0.37},
		Bottom: vision.Point{X: 0.35, Y: 0.43},
	}
	leftPupil := vision.Point{X: 0.35, Y: 0.40}
	left.Pupil = &leftPupil
	right := &vision.EyeLandmarks{
		Outer:  vision.Point{X: 0.70, Y: 0.40},
		Inner:  vision.Point{X: 0.60, Y: 0.40},
		Top:    vision.Point{X: 0.65, Y: 0.37},
		Bottom: vision.Point{X: 0.65, Y: 0.43},
	}
	rightPupil := vision.Point{X: 0.65, Y: 0.40}
	right.Pupil = &rightPupil
	nose := vision.Point{X: 0.50, Y: 0.50}
	return &vision.Landmarks{
		LeftEye:     left,
		RightEye:    right,
		NoseTip:     &nose,
		BoundingBox: vision.Rect{X: 0.20, Y: 0.20, Width: 0.60, Height: 0.60},
		Confidence:  0.9,
	}, nil
}

type stubProbe struct{}

func (stubProbe) Foreground() (screen.ForegroundInfo, error) {
	return screen.ForegroundInfo{AppName: "Xcode", WindowCount: 2}, nil
}

func newTestDeps(t *testing.T) (ipc.Deps, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithoutRemote())
	st := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	controller := perf.NewController(
		cfg,
		perf.StaticThermal(perf.ThermalNominal),
		perf.StaticMemory(perf.MemoryNormal),
		perf.StaticBattery(0.9),
		logger,
	)
	analyzer := patterns.NewAnalyzer(cfg.Patterns, st, logger)
	cls := classifier.New(nil, logger)
	remote := llm.NewService(cfg, logger)
	engine := fusion.NewEngine(cfg.Fusion, cls, remote, analyzer, logger)
	sessions := session.NewManager(cfg, st, logger)
	notifier := notifications.NewService(cfg)

	mon := monitor.New(monitor.Deps{
		Config:    cfg,
		Store:     st,
		Sessions:  sessions,
		Extractor: vision.NewExtractor(stubDetector{}, logger),
		Screen:    screen.NewMonitor(stubProbe{}, controller),
		Engine:    engine,
		Analyzer:  analyzer,
		Remote:    remote,
		Perf:      controller,
		Notifier:  notifier,
		Nudger:    notifications.NewNudger(cfg.Notifications, notifier, logger),
		Logger:    logger,
	})
	return ipc.Deps{
		Monitor:  mon,
		Sessions: sessions,
		Analyzer: analyzer,
		Notifier: notifier,
		Logger:   logger,
	}, cfg
}

func TestIPCServerClient(t *testing.T) {
	deps, cfg := newTestDeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), deps)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}
	if startResp.SessionID == "" {
		t.Fatal("expected session id")
	}

	again, err := client.Start()
	if err != nil {
		t.Fatalf("second Start RPC failed: %v", err)
	}
	if again.Started {
		t.Fatal("expected second start to be rejected while a session is active")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.SessionActive {
		t.Fatal("expected active session in status")
	}
	if status.SessionID != startResp.SessionID {
		t.Fatalf("status session id = %s, want %s", status.SessionID, startResp.SessionID)
	}
	if status.PID <= 0 {
		t.Fatalf("unexpected pid %d", status.PID)
	}

	patternsResp, err := client.Patterns()
	if err != nil {
		t.Fatalf("Patterns RPC failed: %v", err)
	}
	if len(patternsResp.Patterns) != 0 {
		t.Fatalf("expected no patterns yet, got %d", len(patternsResp.Patterns))
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification RPC failed: %v", err)
	}
	if !notifyResp.Sent {
		t.Fatalf("expected notification test to pass: %s", notifyResp.Message)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatalf("expected Stopped=true, message=%s", stopResp.Message)
	}
	if stopResp.ExportPath == "" {
		t.Fatal("expected export path after stop")
	}
	if _, err := os.Stat(stopResp.ExportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	exportResp, err := client.Export()
	if err != nil {
		t.Fatalf("Export RPC failed: %v", err)
	}
	if exportResp.SessionID != startResp.SessionID {
		t.Fatalf("export session id = %s, want %s", exportResp.SessionID, startResp.SessionID)
	}
	if _, err := os.Stat(exportResp.Path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
}

func TestStopWithoutSession(t *testing.T) {
	deps, cfg := newTestDeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), deps)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if stopResp.Stopped {
		t.Fatal("expected stop without session to be rejected")
	}

	if _, err := client.Export(); err == nil {
		t.Fatal("expected export to fail with no session history")
	}
}
