package lock

import "fmt"

// Strategy selects which spin preset and queueing behaviour callers use.
type Strategy int

const (
	SpinOnly Strategy = iota
	SleepOnly
	Hybrid
	Adaptive
)

func (s Strategy) String() string {
	switch s {
	case SpinOnly:
		return "spin_only"
	case SleepOnly:
		return "sleep_only"
	case Hybrid:
		return "hybrid"
	case Adaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy maps a strategy name back to its value.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range []Strategy{SpinOnly, SleepOnly, Hybrid, Adaptive} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown lock strategy %q", name)
}

// ContentionLevel is an ordinal classification of how often acquisition
// attempts fail.
type ContentionLevel int

const (
	ContentionNone ContentionLevel = iota
	ContentionLow
	ContentionMedium
	ContentionHigh
	ContentionExtreme
)

func (l ContentionLevel) String() string {
	switch l {
	case ContentionNone:
		return "none"
	case ContentionLow:
		return "low"
	case ContentionMedium:
		return "medium"
	case ContentionHigh:
		return "high"
	case ContentionExtreme:
		return "extreme"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// LevelFor classifies contention events per acquisition against the fixed
// 5%, 20% and 50% boundaries; a ratio of one or more is Extreme. Integer
// arithmetic keeps the boundaries exact.
func LevelFor(contentions, acquisitions uint64) ContentionLevel {
	if acquisitions == 0 {
		if contentions == 0 {
			return ContentionNone
		}
		return ContentionExtreme
	}

	scaled := contentions * 100
	switch {
	case scaled < acquisitions*5:
		return ContentionNone
	case scaled < acquisitions*20:
		return ContentionLow
	case scaled < acquisitions*50:
		return ContentionMedium
	case contentions < acquisitions:
		return ContentionHigh
	default:
		return ContentionExtreme
	}
}

// SpinParams are the live spin parameters a caller applies while spinning.
type SpinParams struct {
	MaxSpins       uint32 `yaml:"max_spins"`
	BackoffMin     uint32 `yaml:"backoff_min"`
	BackoffMax     uint32 `yaml:"backoff_max"`
	YieldThreshold uint32 `yaml:"yield_threshold"`
}

// PresetName names one of the three spin presets.
type PresetName string

const (
	PresetAggressive   PresetName = "aggressive"
	PresetDefault      PresetName = "default"
	PresetConservative PresetName = "conservative"
)

// Presets holds the three named spin parameter sets.
type Presets struct {
	Aggressive   SpinParams `yaml:"aggressive"`
	Default      SpinParams `yaml:"default"`
	Conservative SpinParams `yaml:"conservative"`
}

// DefaultPresets returns the built-in spin presets.
func DefaultPresets() Presets {
	return Presets{
		Aggressive:   SpinParams{MaxSpins: 1000, BackoffMin: 1, BackoffMax: 64, YieldThreshold: 500},
		Default:      SpinParams{MaxSpins: 100, BackoffMin: 4, BackoffMax: 256, YieldThreshold: 50},
		Conservative: SpinParams{MaxSpins: 10, BackoffMin: 16, BackoffMax: 1024, YieldThreshold: 5},
	}
}

// Get returns the parameters for a preset name.
func (p Presets) Get(name PresetName) SpinParams {
	switch name {
	case PresetAggressive:
		return p.Aggressive
	case PresetConservative:
		return p.Conservative
	default:
		return p.Default
	}
}

// PresetForLevel maps a contention level to its preset: aggressive for
// None/Low, default for Medium, conservative for High/Extreme.
func PresetForLevel(l ContentionLevel) PresetName {
	switch l {
	case ContentionNone, ContentionLow:
		return PresetAggressive
	case ContentionMedium:
		return PresetDefault
	default:
		return PresetConservative
	}
}

// initialPreset is the preset a lock starts with under each strategy.
func initialPreset(s Strategy) PresetName {
	switch s {
	case SpinOnly, Adaptive:
		return PresetAggressive
	case SleepOnly:
		return PresetConservative
	default:
		return PresetDefault
	}
}

// WaitMode is the waiting behaviour recommended to a caller that failed
// TryAcquire.
type WaitMode int

const (
	WaitSpin WaitMode = iota
	WaitSleep
)

func (w WaitMode) String() string {
	if w == WaitSleep {
		return "sleep"
	}
	return "spin"
}
