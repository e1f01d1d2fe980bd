//go:build !linux

package perf

// PlatformProbes returns neutral probes on platforms without a sysfs reader.
func PlatformProbes() (ThermalProbe, MemoryProbe, BatteryProbe) {
	return StaticThermal(ThermalNominal), StaticMemory(MemoryNormal), StaticBattery(1.0)
}
