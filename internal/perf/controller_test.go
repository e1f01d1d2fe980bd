package perf

import (
	"testing"

	"nudge/internal/config"
)

func newTestController() *Controller {
	cfg := config.Default()
	return NewController(&cfg, StaticThermal(ThermalNominal), StaticMemory(MemoryNormal), StaticBattery(1.0), nil)
}

func TestComputeLevelPriority(t *testing.T) {
	cases := []struct {
		name    string
		thermal ThermalState
		memory  MemoryPressure
		battery float64
		want    ProcessingLevel
	}{
		{"critical thermal forces minimal", ThermalCritical, MemoryNormal, 0.9, LevelMinimal},
		{"serious thermal forces minimal", ThermalSerious, MemoryNormal, 0.9, LevelMinimal},
		{"critical memory forces minimal", ThermalNominal, MemoryCritical, 0.9, LevelMinimal},
		{"near-empty battery forces minimal", ThermalNominal, MemoryNormal, 0.05, LevelMinimal},
		{"fair thermal reduces", ThermalFair, MemoryNormal, 0.9, LevelReduced},
		{"memory warning reduces", ThermalNominal, MemoryWarning, 0.9, LevelReduced},
		{"low battery reduces", ThermalNominal, MemoryNormal, 0.15, LevelReduced},
		{"healthy host runs optimal", ThermalNominal, MemoryNormal, 0.9, LevelOptimal},
		{"mid battery runs normal", ThermalNominal, MemoryNormal, 0.4, LevelNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := computeLevel(tc.thermal, tc.memory, tc.battery); got != tc.want {
				t.Fatalf("computeLevel(%v, %v, %v) = %v, want %v", tc.thermal, tc.memory, tc.battery, got, tc.want)
			}
		})
	}
}

func TestObserveBroadcastsChange(t *testing.T) {
	c := newTestController()
	sub := c.Subscribe()

	level := c.Observe(ThermalCritical, MemoryNormal, 0.9)
	if level != LevelMinimal {
		t.Fatalf("expected minimal, got %v", level)
	}
	select {
	case got := <-sub:
		if got != LevelMinimal {
			t.Fatalf("subscriber got %v, want minimal", got)
		}
	default:
		t.Fatal("expected a broadcast on level change")
	}

	// Same level again: no broadcast.
	c.Observe(ThermalSerious, MemoryNormal, 0.9)
	select {
	case got := <-sub:
		t.Fatalf("unexpected broadcast %v", got)
	default:
	}
}

func TestSubscriberSeesLatestLevel(t *testing.T) {
	c := newTestController()
	sub := c.Subscribe()

	c.Observe(ThermalCritical, MemoryNormal, 0.9) // minimal
	c.Observe(ThermalNominal, MemoryNormal, 0.9)  // optimal, replaces pending

	got := <-sub
	if got != LevelOptimal {
		t.Fatalf("slow subscriber should see latest level, got %v", got)
	}
}

func TestSettingsMapping(t *testing.T) {
	c := newTestController()
	c.cores = 16

	cases := map[ProcessingLevel]Settings{
		LevelMinimal: {FrameInterval: 10, VisionQuality: QualityLow, ThrottleAPI: true},
		LevelReduced: {FrameInterval: 6, VisionQuality: QualityBalanced, ThrottleAPI: true},
		LevelNormal:  {FrameInterval: 3, VisionQuality: QualityBalanced, ThrottleAPI: false},
		LevelOptimal: {FrameInterval: 2, VisionQuality: QualityHigh, ThrottleAPI: false},
	}
	for level, want := range cases {
		if got := c.SettingsFor(level); got != want {
			t.Fatalf("SettingsFor(%v) = %+v, want %+v", level, got, want)
		}
	}
}

func TestLowCoreFrameFloor(t *testing.T) {
	c := newTestController()
	c.cores = 4

	if got := c.SettingsFor(LevelOptimal).FrameInterval; got != 4 {
		t.Fatalf("expected frame floor 4 on low-core host, got %d", got)
	}
	if got := c.SettingsFor(LevelMinimal).FrameInterval; got != 10 {
		t.Fatalf("floor must not lower minimal interval, got %d", got)
	}
}
