// internal/share/share.go
//
// Verification token, heat sparkline and the plain-text share card.
//
// The token is FNV-1a (32-bit) over
//
//   seed:modifierId:score:wordsPlayed:maxCombo:round(maxHeat)
//
// rendered in upper-case base 36, cut to 6 characters and prefixed "HS-".
// The share text layout is fixed; other hosts parse it.

package share

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	"github.com/robalobadob/heatstack/internal/game"
	"github.com/robalobadob/heatstack/internal/heat"
	"github.com/robalobadob/heatstack/internal/modifiers"
	"github.com/robalobadob/heatstack/internal/scoring"
)

// URL is the play link appended to every share card.
const URL = "https://heatstack.pages.dev"

var sparkChars = []rune("▁▂▃▄▅▆▇█")

// Token returns the verification token for r.
func Token(r game.RunResult) string {
	payload := fmt.Sprintf("%d:%s:%d:%d:%d:%d",
		r.Seed, r.Modifier, r.Score, r.WordsPlayed, r.MaxCombo, int64(math.Round(r.MaxHeat)))
	h := fnv.New32a()
	h.Write([]byte(payload))
	enc := strings.ToUpper(strconv.FormatUint(uint64(h.Sum32()), 36))
	if len(enc) > 6 {
		enc = enc[:6]
	}
	return "HS-" + enc
}

// Sparkline renders a heat trace as block characters. An empty trace is a
// single lowest block.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return string(sparkChars[0])
	}
	top := float64(len(sparkChars) - 1)
	var b strings.Builder
	for _, v := range values {
		i := int(math.Round(heat.Clamp(v) / 100 * top))
		b.WriteRune(sparkChars[i])
	}
	return b.String()
}

// Text renders the share card for r.
func Text(r game.RunResult) string {
	label := "Blitz"
	challenge := fmt.Sprintf("Challenge: Beat %d in 60s Blitz.", r.Score)
	if r.Mode == game.ModeDaily {
		label = fmt.Sprintf("Daily #%d", r.DayNumber)
		challenge = fmt.Sprintf("Challenge: Beat %d on %s.", r.Score, label)
	}

	medal := "No Medal"
	if r.Medal != scoring.None && r.Medal != "" {
		medal = string(r.Medal) + " Medal"
	}

	chain := "No chain"
	if len(r.TopChain) > 0 {
		chain = strings.Join(r.TopChain, " -> ")
	}

	return strings.Join([]string{
		"HEATSTACK " + label,
		fmt.Sprintf("Score %d | Combo x%d | %s", r.Score, r.MaxCombo, medal),
		"Twist: " + modifiers.ByID(r.Modifier).Name,
		"Heat " + Sparkline(r.HeatTrace),
		"Top Chain: " + chain,
		challenge,
		"Verify " + Token(r),
		"Play: " + URL,
	}, "\n")
}
