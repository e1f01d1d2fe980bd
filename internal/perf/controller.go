package perf

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"nudge/internal/config"
	"nudge/internal/logging"
)

// ThermalProbe reports the current thermal pressure.
type ThermalProbe interface {
	ThermalState() ThermalState
}

// MemoryProbe reports the coarse memory headroom classification.
type MemoryProbe interface {
	Pressure() MemoryPressure
}

// BatteryProbe reports the battery charge fraction in [0,1]. Hosts without a
// battery report 1.0.
type BatteryProbe interface {
	Level() float64
}

// Controller derives the processing level from thermal, memory, and battery
// observations and broadcasts level changes to typed subscriber channels.
type Controller struct {
	logger    *slog.Logger
	thermal   ThermalProbe
	memory    MemoryProbe
	battery   BatteryProbe
	tick      time.Duration
	powerTick time.Duration
	cores     int

	mu          sync.Mutex
	level       ProcessingLevel
	lastThermal ThermalState
	lastMemory  MemoryPressure
	lastBattery float64
	subscribers []chan ProcessingLevel

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController constructs a controller over the given probes.
func NewController(cfg *config.Config, thermal ThermalProbe, memory MemoryProbe, battery BatteryProbe, logger *slog.Logger) *Controller {
	tick := 5 * time.Second
	powerTick := 30 * time.Second
	if cfg != nil {
		if cfg.Performance.TickSeconds > 0 {
			tick = time.Duration(cfg.Performance.TickSeconds) * time.Second
		}
		if cfg.Performance.PowerPollSeconds > 0 {
			powerTick = time.Duration(cfg.Performance.PowerPollSeconds) * time.Second
		}
	}
	return &Controller{
		logger:      logging.WithComponent(logger, "perf"),
		thermal:     thermal,
		memory:      memory,
		battery:     battery,
		tick:        tick,
		powerTick:   powerTick,
		cores:       runtime.NumCPU(),
		level:       LevelNormal,
		lastThermal: ThermalNominal,
		lastMemory:  MemoryNormal,
		lastBattery: 1.0,
	}
}

// Subscribe returns a channel receiving each level change. The channel is
// buffered; a slow consumer observes only the most recent change.
func (c *Controller) Subscribe() <-chan ProcessingLevel {
	ch := make(chan ProcessingLevel, 1)
	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()
	return ch
}

// Level returns the current processing level.
func (c *Controller) Level() ProcessingLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// SettingsFor maps a level to its throttle tuple, applying the low-core
// frame-interval floor.
func (c *Controller) SettingsFor(level ProcessingLevel) Settings {
	s := levelSettings[level]
	if c.cores < lowCoreThreshold && s.FrameInterval < lowCoreFrameFloor {
		s.FrameInterval = lowCoreFrameFloor
	}
	return s
}

// Settings returns the throttle tuple for the current level.
func (c *Controller) Settings() Settings {
	return c.SettingsFor(c.Level())
}

// Start launches the recompute tick and the slower power/memory poll.
func (c *Controller) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.pollPower()
	c.recompute()

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.recompute()
			}
		}
	}()
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.powerTick)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.pollPower()
			}
		}
	}()
}

// Stop tears down the controller goroutines.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Controller) pollPower() {
	memory := MemoryNormal
	if c.memory != nil {
		memory = c.memory.Pressure()
	}
	battery := 1.0
	if c.battery != nil {
		battery = c.battery.Level()
	}
	c.mu.Lock()
	c.lastMemory = memory
	c.lastBattery = battery
	c.mu.Unlock()
}

func (c *Controller) recompute() {
	thermal := ThermalNominal
	if c.thermal != nil {
		thermal = c.thermal.ThermalState()
	}

	c.mu.Lock()
	c.lastThermal = thermal
	next := computeLevel(thermal, c.lastMemory, c.lastBattery)
	changed := next != c.level
	c.level = next
	subs := append([]chan ProcessingLevel(nil), c.subscribers...)
	c.mu.Unlock()

	if changed {
		c.publish(next, thermal, subs)
	}
}

// Observe applies external readings immediately; used when the platform
// delivers thermal events instead of being polled, and by tests.
func (c *Controller) Observe(thermal ThermalState, memory MemoryPressure, battery float64) ProcessingLevel {
	c.mu.Lock()
	c.lastThermal = thermal
	c.lastMemory = memory
	c.lastBattery = battery
	next := computeLevel(thermal, memory, battery)
	changed := next != c.level
	c.level = next
	subs := append([]chan ProcessingLevel(nil), c.subscribers...)
	c.mu.Unlock()

	if changed {
		c.publish(next, thermal, subs)
	}
	return next
}

func (c *Controller) publish(next ProcessingLevel, thermal ThermalState, subs []chan ProcessingLevel) {
	c.logger.Info("processing level changed",
		logging.String(logging.FieldLevel, next.String()),
		logging.String("thermal", string(thermal)),
	)
	for _, ch := range subs {
		select {
		case ch <- next:
		default:
			// Replace a stale pending value so subscribers always observe
			// the latest level.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}

// computeLevel applies the transition rules in priority order; first match wins.
func computeLevel(thermal ThermalState, memory MemoryPressure, battery float64) ProcessingLevel {
	switch {
	case thermal == ThermalSerious || thermal == ThermalCritical ||
		memory == MemoryCritical || battery < 0.1:
		return LevelMinimal
	case thermal == ThermalFair || memory == MemoryWarning || battery < 0.2:
		return LevelReduced
	case thermal == ThermalNominal && memory == MemoryNormal && battery > 0.5:
		return LevelOptimal
	default:
		return LevelNormal
	}
}

// ThermalSnapshot returns the last observed thermal state.
func (c *Controller) ThermalSnapshot() ThermalState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastThermal
}

// BatterySnapshot returns the last observed battery fraction.
func (c *Controller) BatterySnapshot() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBattery
}
