package heat

import (
	"math"
	"testing"
	"time"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDecayByTier(t *testing.T) {
	tests := []struct {
		start, mult, want float64
	}{
		{25, 1, 22},
		{60, 1, 56.4},
		{80, 1, 75.6},
		{10, 1, 7.4},
		{50, 1.2, 45.68},
	}
	for _, tt := range tests {
		got := Decay(tt.start, time.Second, tt.mult)
		if !near(got, tt.want) {
			t.Errorf("Decay(%v, 1s, %v) = %v, want %v", tt.start, tt.mult, got, tt.want)
		}
	}
}

func TestDecayClampsAtZero(t *testing.T) {
	if got := Decay(1, 10*time.Second, 1); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	for in, want := range map[float64]float64{-10: 0, 50: 50, 120: 100} {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestGainForCombo(t *testing.T) {
	for c, want := range map[int]float64{0: 13, 1: 13, 2: 16, 6: 28, 10: 29} {
		if got := GainForCombo(c); got != want {
			t.Errorf("GainForCombo(%d) = %v, want %v", c, got, want)
		}
	}
	if got := ApplyGain(30, 1); got != 43 {
		t.Errorf("ApplyGain(30,1) = %v", got)
	}
	if got := ApplyGain(95, 6); got != 100 {
		t.Errorf("ApplyGain(95,6) = %v", got)
	}
}

func TestMultiplierAndTier(t *testing.T) {
	tests := []struct {
		h    float64
		mult float64
		tier string
	}{
		{0, 1, "cold"},
		{24, 1, "cold"},
		{25, 1.25, "warm"},
		{50, 1.55, "hot"},
		{75, 1.9, "blazing"},
		{100, 1.9, "blazing"},
	}
	for _, tt := range tests {
		if got := Multiplier(tt.h); got != tt.mult {
			t.Errorf("Multiplier(%v) = %v, want %v", tt.h, got, tt.mult)
		}
		if got := Tier(tt.h); got != tt.tier {
			t.Errorf("Tier(%v) = %q, want %q", tt.h, got, tt.tier)
		}
	}
}
