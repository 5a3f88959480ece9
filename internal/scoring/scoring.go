// internal/scoring/scoring.go
//
// Per-word score and daily medal thresholds.
//
//   base = 80 + 8·uniqueLetters + 6·rerollsLeft
//   gain = round(base·heatMultiplier) + 14·combo + max(0, 45 − ⌊rackAgeMs/250⌋)

package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/robalobadob/heatstack/internal/heat"
)

// Medal is the daily award tier.
type Medal string

const (
	None   Medal = "None"
	Bronze Medal = "Bronze"
	Silver Medal = "Silver"
	Gold   Medal = "Gold"
)

// UniqueLetters counts distinct letters in word, ignoring case.
func UniqueLetters(word string) int {
	return len(lo.Uniq([]rune(strings.ToUpper(word))))
}

func BaseScore(word string, rerollsLeft int) int {
	return 80 + UniqueLetters(word)*8 + rerollsLeft*6
}

// Input carries everything a word's score depends on. Heat is the post-gain
// value for the submission.
type Input struct {
	Word        string
	RerollsLeft int
	Heat        float64
	Combo       int
	RackAge     time.Duration
}

type Result struct {
	Gain       int
	Multiplier float64
	Base       int
}

// WordScore scores one accepted submission.
func WordScore(in Input) Result {
	base := BaseScore(in.Word, in.RerollsLeft)
	mult := heat.Multiplier(in.Heat)
	quick := max(0, 45-int(in.RackAge.Milliseconds()/250))
	gain := int(math.Round(float64(base)*mult)) + in.Combo*14 + quick
	return Result{Gain: gain, Multiplier: mult, Base: base}
}

// MedalFor maps a daily score to its medal.
func MedalFor(score int) Medal {
	switch {
	case score >= 3200:
		return Gold
	case score >= 2200:
		return Silver
	case score >= 1400:
		return Bronze
	default:
		return None
	}
}
