package game

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/heatstack/internal/chain"
	"github.com/robalobadob/heatstack/internal/rng"
)

func dieID(i int) string { return "die-" + strconv.Itoa(i) }

// DiceFromLetters builds a rack from the first DiceCount letters.
func DiceFromLetters(letters []string) []Die {
	n := min(len(letters), DiceCount)
	dice := make([]Die, n)
	for i := 0; i < n; i++ {
		dice[i] = Die{ID: dieID(i), Letter: strings.ToUpper(letters[i])}
	}
	return dice
}

// DiceFromWord scrambles word into a rack.
func DiceFromWord(word string, src rng.Source) []Die {
	return DiceFromLetters(chain.ShuffledLetters(word, src))
}

// ShuffleDice returns a reordered copy of dice; IDs travel with their letters.
func ShuffleDice(dice []Die, src rng.Source) []Die {
	out := append([]Die(nil), dice...)
	for i := len(out) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// RackWord reads the rack left to right.
func RackWord(dice []Die) string {
	var b strings.Builder
	for _, d := range dice {
		b.WriteString(d.Letter)
	}
	return b.String()
}

// StageWord reads the staged tiles in stage order.
func StageWord(s State) string {
	byID := lo.SliceToMap(s.Dice, func(d Die) (string, string) { return d.ID, d.Letter })
	var b strings.Builder
	for _, id := range s.StageIDs {
		b.WriteString(byID[id])
	}
	return b.String()
}

func rackLetters(dice []Die) []string {
	return lo.Map(dice, func(d Die, _ int) string { return d.Letter })
}

// stageIDsForWord maps each letter of word to an unused tile, or reports
// false when the rack cannot spell it.
func stageIDsForWord(word string, dice []Die) ([]string, bool) {
	ids := make([]string, 0, len(word))
	for _, r := range strings.ToUpper(word) {
		letter := string(r)
		d, ok := lo.Find(dice, func(d Die) bool {
			return d.Letter == letter && !lo.Contains(ids, d.ID)
		})
		if !ok {
			return nil, false
		}
		ids = append(ids, d.ID)
	}
	return ids, true
}
