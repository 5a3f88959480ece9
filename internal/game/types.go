// internal/game/types.go
//
// Core type definitions for the run orchestrator.
// Defines:
//   - Mode / Status: run flavour and lifecycle phase.
//   - Die: one rack tile.
//   - WordRecord: one accepted submission.
//   - RunResult: the immutable summary emitted when a run finishes.
//   - State: everything a single run owns, including its RNG stream.

package game

import (
	"time"

	"github.com/robalobadob/heatstack/internal/heat"
	"github.com/robalobadob/heatstack/internal/modifiers"
	"github.com/robalobadob/heatstack/internal/rng"
	"github.com/robalobadob/heatstack/internal/scoring"
)

type Mode string

const (
	ModeDaily Mode = "daily"
	ModeBlitz Mode = "blitz"
)

// ParseMode accepts "daily" or "blitz".
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeDaily, ModeBlitz:
		return Mode(s), true
	}
	return "", false
}

type Status string

const (
	StatusMenu     Status = "menu"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

const (
	DiceCount        = 5
	StartingRerolls  = 4
	DailyDuration    = 75 * time.Second
	BlitzDuration    = 60 * time.Second
	MaxRackAge       = 120 * time.Second
	autoFillCharges  = 2
	autoFillHeatCost = 12
)

// Duration is the fixed run length for m.
func (m Mode) Duration() time.Duration {
	if m == ModeDaily {
		return DailyDuration
	}
	return BlitzDuration
}

// Die is a rack tile. IDs are stable per slot ("die-0".."die-4") so a stage
// can reference tiles independently of their display order.
type Die struct {
	ID     string `json:"id"`
	Letter string `json:"letter"`
}

type WordRecord struct {
	Word        string    `json:"word"`
	Combo       int       `json:"combo"`
	Overlap     int       `json:"overlap"`
	ScoreGain   int       `json:"scoreGain"`
	HeatAfter   float64   `json:"heatAfter"`
	Multiplier  float64   `json:"multiplier"`
	RerollsLeft int       `json:"rerollsLeft"`
	Anchors     [2]string `json:"anchors"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// RunResult summarises a finished run. DayNumber is only meaningful for
// daily runs.
type RunResult struct {
	Mode        Mode          `json:"mode"`
	DayNumber   int           `json:"dayNumber,omitempty"`
	Seed        int64         `json:"seed"`
	Modifier    modifiers.ID  `json:"dailyModifierId"`
	Score       int           `json:"score"`
	WordsPlayed int           `json:"wordsPlayed"`
	MaxCombo    int           `json:"maxCombo"`
	MaxHeat     float64       `json:"maxHeat"`
	Medal       scoring.Medal `json:"medal"`
	HeatTrace   []float64     `json:"heatTrace"`
	TopChain    []string      `json:"topChain"`
	EndedAt     time.Time     `json:"endedAt"`
}

// State is one run. It is a plain value: Apply never mutates the slices of
// the state it was given, so earlier states stay valid.
type State struct {
	Mode      Mode
	Status    Status
	Seed      int64
	DayNumber int
	Modifier  modifiers.ID

	Dice        []Die
	StageIDs    []string
	RerollsLeft int
	TimeLeft    time.Duration
	RackAge     time.Duration

	Score    int
	Combo    int
	MaxCombo int
	Heat     float64

	UsedWords  []string // lowercase
	LastWord   string   // uppercase, "" before the first submission
	History    []WordRecord
	Anchors    [2]string
	HasAnchors bool
	Recent     []string

	Result *RunResult

	rng rng.Mulberry32
}

// NewState returns the idle menu state.
func NewState() State {
	dice := make([]Die, DiceCount)
	for i := range dice {
		dice[i] = Die{ID: dieID(i)}
	}
	return State{
		Mode:        ModeDaily,
		Status:      StatusMenu,
		Modifier:    modifiers.None,
		Dice:        dice,
		RerollsLeft: StartingRerolls,
		Heat:        heat.Start,
	}
}
