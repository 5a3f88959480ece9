// internal/heat/heat.go
//
// Heat meter: clamping, tiered decay, score multiplier and per-word gain.
//
// Tiers are selected from the heat value before decay is applied:
//
//   heat >= 75  → 4.4/s decay, ×1.90
//   heat >= 50  → 3.6/s decay, ×1.55
//   heat >= 25  → 3.0/s decay, ×1.25
//   otherwise   → 2.6/s decay, ×1.00

package heat

import (
	"math"
	"time"
)

const (
	Min   = 0.0
	Max   = 100.0
	Start = 25.0
)

// Clamp bounds h to [Min, Max].
func Clamp(h float64) float64 {
	return math.Max(Min, math.Min(Max, h))
}

func decayPerSecond(h float64) float64 {
	switch {
	case h >= 75:
		return 4.4
	case h >= 50:
		return 3.6
	case h >= 25:
		return 3
	default:
		return 2.6
	}
}

// Decay drains heat for elapsed wall time. mult scales the tier rate
// (1 for standard rules).
func Decay(h float64, elapsed time.Duration, mult float64) float64 {
	ms := float64(elapsed) / float64(time.Millisecond)
	return Clamp(h - (decayPerSecond(h)*mult*ms)/1000)
}

// Multiplier returns the score multiplier for h.
func Multiplier(h float64) float64 {
	switch {
	case h >= 75:
		return 1.9
	case h >= 50:
		return 1.55
	case h >= 25:
		return 1.25
	default:
		return 1
	}
}

// GainForCombo is the heat added by a word submitted at combo c.
func GainForCombo(c int) float64 {
	return float64(13 + min(16, 3*max(0, c-1)))
}

// ApplyGain adds the combo gain to h and clamps.
func ApplyGain(h float64, c int) float64 {
	return Clamp(h + GainForCombo(c))
}

// Tier names the band h falls in.
func Tier(h float64) string {
	switch {
	case h >= 75:
		return "blazing"
	case h >= 50:
		return "hot"
	case h >= 25:
		return "warm"
	default:
		return "cold"
	}
}
