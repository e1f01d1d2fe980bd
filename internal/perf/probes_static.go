package perf

// Static probes return fixed readings; used in tests and on hosts where a
// real probe is unavailable.

type StaticThermal ThermalState

func (s StaticThermal) ThermalState() ThermalState { return ThermalState(s) }

type StaticMemory MemoryPressure

func (s StaticMemory) Pressure() MemoryPressure { return MemoryPressure(s) }

type StaticBattery float64

func (s StaticBattery) Level() float64 { return float64(s) }
