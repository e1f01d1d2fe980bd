package perf

// ThermalState mirrors the platform thermal pressure label.
type ThermalState string

const (
	ThermalNominal  ThermalState = "nominal"
	ThermalFair     ThermalState = "fair"
	ThermalSerious  ThermalState = "serious"
	ThermalCritical ThermalState = "critical"
)

// Nominal reports whether the state permits remote analysis calls.
func (t ThermalState) Nominal() bool {
	return t == ThermalNominal || t == ThermalFair
}

// MemoryPressure is the coarse memory headroom classification.
type MemoryPressure string

const (
	MemoryNormal   MemoryPressure = "normal"
	MemoryWarning  MemoryPressure = "warning"
	MemoryCritical MemoryPressure = "critical"
)

// ProcessingLevel is the discrete throttling tier. Levels are totally
// ordered: Minimal < Reduced < Normal < Optimal.
type ProcessingLevel int

const (
	LevelMinimal ProcessingLevel = iota
	LevelReduced
	LevelNormal
	LevelOptimal
)

func (l ProcessingLevel) String() string {
	switch l {
	case LevelMinimal:
		return "minimal"
	case LevelReduced:
		return "reduced"
	case LevelNormal:
		return "normal"
	case LevelOptimal:
		return "optimal"
	default:
		return "unknown"
	}
}

// VisionQuality selects the landmark-detection quality tier.
type VisionQuality string

const (
	QualityLow      VisionQuality = "low"
	QualityBalanced VisionQuality = "balanced"
	QualityHigh     VisionQuality = "high"
)

// Settings is the concrete throttle tuple a processing level maps to.
type Settings struct {
	FrameInterval int
	VisionQuality VisionQuality
	ThrottleAPI   bool
}

// lowCoreFrameFloor is applied to FrameInterval on hosts with few logical cores.
const (
	lowCoreThreshold  = 8
	lowCoreFrameFloor = 4
)

var levelSettings = map[ProcessingLevel]Settings{
	LevelMinimal: {FrameInterval: 10, VisionQuality: QualityLow, ThrottleAPI: true},
	LevelReduced: {FrameInterval: 6, VisionQuality: QualityBalanced, ThrottleAPI: true},
	LevelNormal:  {FrameInterval: 3, VisionQuality: QualityBalanced, ThrottleAPI: false},
	LevelOptimal: {FrameInterval: 2, VisionQuality: QualityHigh, ThrottleAPI: false},
}
