package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"nudge/internal/config"
	"nudge/internal/logging"
	"nudge/internal/monitor"
	"nudge/internal/store"
)

// Daemon owns the background pipeline and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	monitor *monitor.Monitor
	camera  *cameraMonitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Monitor      monitor.Status
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, mon *monitor.Monitor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || mon == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, monitor, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "nudged.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    st,
		monitor:  mon,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if cfg.Camera.HotplugMonitor {
		d.camera = newCameraMonitor(cfg, logger, mon)
	}
	return d, nil
}

// Start acquires the daemon lock and launches the pipeline coordinator.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another nudge daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.monitor.Run(d.ctx); err != nil {
			d.logger.Warn("monitor exited", logging.Error(err))
		}
	}()

	if d.camera != nil {
		if err := d.camera.Start(d.ctx); err != nil {
			d.logger.Warn("camera hotplug monitor unavailable", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("nudge daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down background processing and releases the daemon lock. An
// active monitoring session is finished and exported by the coordinator.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.camera != nil {
		d.camera.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("nudge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon lifecycle is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status reports daemon and pipeline state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Monitor:      d.monitor.Status(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
