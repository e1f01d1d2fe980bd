package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"nudge/internal/classifier"
	"nudge/internal/config"
	"nudge/internal/daemon"
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
	"nudge/internal/store"
	"nudge/internal/vision"
)

// syntheticSeedSize is the labeled sample count used to bootstrap the
// classifier when no trained model exists on disk yet.
const syntheticSeedSize = 200

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("nudge-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "nudge-*.log", cfg.Logging.RetentionDays)

	pidPath := filepath.Join(cfg.Paths.LogDir, "nudge.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open attention store", logging.Error(err))
		return err
	}
	defer st.Close()

	thermal, memory, battery := perf.PlatformProbes()
	controller := perf.NewController(cfg, thermal, memory, battery, logger)
	mon, sessions, analyzer, notifier := buildPipeline(signalCtx, cfg, st, controller, logger)

	d, err := daemon.New(cfg, st, mon, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), ipc.Deps{
		Monitor:  mon,
		Sessions: sessions,
		Analyzer: analyzer,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("nudge daemon shutting down")
	return nil
}

// buildPipeline wires the attention pipeline from configuration. The camera
// and landmark collaborators are platform integrations injected at the edge;
// without them the daemon monitors application context only.
func buildPipeline(ctx context.Context, cfg *config.Config, st *store.Store, controller *perf.Controller, logger *slog.Logger) (*monitor.Monitor, *session.Manager, *patterns.Analyzer, notifications.Service) {
	cls := classifier.New(loadOrTrainModel(cfg, logger), logger)

	analyzer := patterns.NewAnalyzer(cfg.Patterns, st, logger)
	if stored, err := st.Patterns(ctx); err != nil {
		logger.Warn("failed to restore behavioral patterns", logging.Error(err))
	} else {
		analyzer.Restore(stored)
	}

	remote := llm.NewService(cfg, logger)
	engine := fusion.NewEngine(cfg.Fusion, cls, remote, analyzer, logger)
	sessions := session.NewManager(cfg, st, logger)
	notifier := notifications.NewService(cfg)

	mon := monitor.New(monitor.Deps{
		Config:    cfg,
		Store:     st,
		Sessions:  sessions,
		Extractor: vision.NewExtractor(noFaceDetector{}, logger),
		Screen:    screen.NewMonitor(nil, controller),
		Engine:    engine,
		Analyzer:  analyzer,
		Remote:    remote,
		Perf:      controller,
		Notifier:  notifier,
		Nudger:    notifications.NewNudger(cfg.Notifications, notifier, logger),
		Logger:    logger,
	})
	return mon, sessions, analyzer, notifier
}

// loadOrTrainModel loads the persisted classifier weights, bootstrapping
// them from the deterministic synthetic set on first run. A nil return means
// the classifier runs on its rule fallback.
func loadOrTrainModel(cfg *config.Config, logger *slog.Logger) classifier.Model {
	modelPath := filepath.Join(cfg.Paths.DataDir, "classifier.json")

	model, err := classifier.LoadModel(modelPath)
	if err != nil {
		logger.Warn("failed to load classifier model, retraining", logging.Error(err))
	}
	if model != nil {
		return model
	}

	samples := classifier.SyntheticSamples(syntheticSeedSize, 1)
	trained, err := classifier.LogisticTrainer{}.Train(samples)
	if err != nil {
		logger.Warn("classifier training failed, using rule fallback", logging.Error(err))
		return nil
	}
	if lm, ok := trained.(*classifier.LogisticModel); ok {
		if err := classifier.SaveModel(lm, modelPath); err != nil {
			logger.Warn("failed to persist classifier model", logging.Error(err))
		}
	}
	return trained
}

// noFaceDetector stands in for the OS landmark collaborator when no capture
// integration is wired; every frame degrades to a no-face snapshot.
type noFaceDetector struct{}

func (noFaceDetector) Detect([]byte) (*vision.Landmarks, error) { return nil, nil }

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
