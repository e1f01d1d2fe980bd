//go:build linux

package perf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// SysfsThermalProbe reads the first thermal zone temperature from sysfs.
type SysfsThermalProbe struct {
	// Root overrides the sysfs mount point in tests.
	Root string
}

func (p SysfsThermalProbe) ThermalState() ThermalState {
	root := p.Root
	if root == "" {
		root = "/sys"
	}
	raw, err := os.ReadFile(filepath.Join(root, "class/thermal/thermal_zone0/temp"))
	if err != nil {
		return ThermalNominal
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return ThermalNominal
	}
	celsius := milli / 1000
	switch {
	case celsius >= 85:
		return ThermalCritical
	case celsius >= 75:
		return ThermalSerious
	case celsius >= 60:
		return ThermalFair
	default:
		return ThermalNominal
	}
}

// SysinfoMemoryProbe classifies pressure from total physical memory. A
// deliberately coarse proxy: hosts under 4 GiB run critical, under 8 GiB
// warning, else normal.
type SysinfoMemoryProbe struct{}

func (SysinfoMemoryProbe) Pressure() MemoryPressure {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return MemoryNormal
	}
	totalBytes := uint64(info.Totalram) * uint64(info.Unit)
	const gib = 1 << 30
	switch {
	case totalBytes < 4*gib:
		return MemoryCritical
	case totalBytes < 8*gib:
		return MemoryWarning
	default:
		return MemoryNormal
	}
}

// SysfsBatteryProbe reads the battery charge fraction from the power-supply
// class. Hosts without a battery report full charge.
type SysfsBatteryProbe struct {
	Root string
}

func (p SysfsBatteryProbe) Level() float64 {
	root := p.Root
	if root == "" {
		root = "/sys"
	}
	base := filepath.Join(root, "class/power_supply")
	entries, err := os.ReadDir(base)
	if err != nil {
		return 1.0
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "BAT") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(base, entry.Name(), "capacity"))
		if err != nil {
			continue
		}
		pct, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			continue
		}
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return float64(pct) / 100
	}
	return 1.0
}

// PlatformProbes returns the default probe set for this platform.
func PlatformProbes() (ThermalProbe, MemoryProbe, BatteryProbe) {
	return SysfsThermalProbe{}, SysinfoMemoryProbe{}, SysfsBatteryProbe{}
}
