// internal/modifiers/modifiers.go
//
// Daily rule modifiers ("twists"). Each daily seed selects exactly one
// modifier; blitz runs always play under None.

package modifiers

import (
	"errors"

	"github.com/robalobadob/heatstack/internal/heat"
)

type ID string

const (
	None       ID = "none"
	HeatBleed  ID = "heat_bleed"
	NoRerolls  ID = "no_rerolls"
	SurgeStart ID = "surge_start"
)

// ErrUnknown is returned by Parse for ids outside the catalog.
var ErrUnknown = errors.New("modifiers: unknown modifier")

type Modifier struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// daily is the selection order used by ForSeed.
var daily = []Modifier{
	{ID: HeatBleed, Name: "Heat Bleed +20%", Description: "Reactor heat drains faster all run."},
	{ID: NoRerolls, Name: "No Rerolls", Description: "Re-roll and Auto Fill are disabled today."},
	{ID: SurgeStart, Name: "Surge Start", Description: "Start with +20 heat for an early combo push."},
}

var standard = Modifier{ID: None, Name: "No Modifier", Description: "Standard rules."}

// ForSeed deterministically picks the daily modifier for seed.
func ForSeed(seed int64) Modifier {
	x := mix32(uint32(seed) ^ 0x9e3779b9)
	return daily[x%uint32(len(daily))]
}

func mix32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// ByID returns the catalog entry for id, or the standard rules when id is
// not recognised.
func ByID(id ID) Modifier {
	for _, m := range daily {
		if m.ID == id {
			return m
		}
	}
	return standard
}

// Parse validates a client-supplied modifier id.
func Parse(s string) (ID, error) {
	id := ID(s)
	if id == None {
		return None, nil
	}
	for _, m := range daily {
		if m.ID == id {
			return id, nil
		}
	}
	return "", ErrUnknown
}

// All lists every modifier, standard rules first.
func All() []Modifier {
	return append([]Modifier{standard}, daily...)
}

func DecayMultiplier(id ID) float64 {
	if id == HeatBleed {
		return 1.2
	}
	return 1
}

// StartHeat is the opening heat for a run under id.
func StartHeat(id ID) float64 {
	if id == SurgeStart {
		return heat.Clamp(heat.Start + 20)
	}
	return heat.Start
}

func StartingRerolls(defaultCharges int, id ID) int {
	if id == NoRerolls {
		return 0
	}
	return defaultCharges
}

// RerollDisabled reports whether reroll and auto-fill are locked out.
func RerollDisabled(id ID) bool { return id == NoRerolls }
