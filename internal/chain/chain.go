// internal/chain/chain.go
//
// Rack chaining: choose the source word for the next rack so that it shares
// anchor letters with the word just played, and scramble it into tiles.
//
// Selection per attempt (at most 10 attempts):
//   • with probability 0.62 both anchors come from the previous word
//     (two distinct positions), otherwise one letter of the previous word is
//     paired with a letter from the wild pool;
//   • an anchor pair with no dictionary words is skipped;
//   • otherwise a word containing both anchors is drawn, avoiding the recent
//     rack sources when possible.
// When every attempt misses, a random dictionary word is used and the
// selection is flagged as a fallback.

package chain

import (
	"strings"

	"github.com/robalobadob/heatstack/internal/rng"
	"github.com/robalobadob/heatstack/internal/words"
)

const (
	linkedChance = 0.62
	maxAttempts  = 10

	// RecentMax bounds the recent rack source list.
	RecentMax = 10
)

var wildPool = []string{"E", "A", "R", "O", "T", "L", "I", "N", "S", "H"}

// Selection is the outcome of ChooseNextRackSource.
type Selection struct {
	Word       string
	Anchors    [2]string
	HasAnchors bool
	Fallback   bool
}

// PickAnchors returns the letters at two distinct random positions of word.
func PickAnchors(word string, src rng.Source) [2]string {
	letters := strings.Split(strings.ToUpper(word), "")
	first := src.Intn(len(letters))
	second := src.Intn(len(letters))
	for second == first {
		second = src.Intn(len(letters))
	}
	return [2]string{letters[first], letters[second]}
}

func pickWildAnchors(word string, src rng.Source) [2]string {
	letters := strings.Split(strings.ToUpper(word), "")
	fromChain := letters[src.Intn(len(letters))]
	return [2]string{fromChain, wildPool[src.Intn(len(wildPool))]}
}

// ChooseNextRackSource picks the next rack's source word. prev is "" at the
// start of a run.
func ChooseNextRackSource(idx *words.Index, prev string, src rng.Source, recent []string) Selection {
	if prev == "" {
		return Selection{Word: idx.Random(src)}
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var anchors [2]string
		if src.Float64() < linkedChance {
			anchors = PickAnchors(prev, src)
		} else {
			anchors = pickWildAnchors(prev, src)
		}
		if len(idx.WithAnchors(anchors[0], anchors[1])) == 0 {
			continue
		}
		return Selection{
			Word:       idx.RandomWithAnchors(anchors[0], anchors[1], src, recent),
			Anchors:    anchors,
			HasAnchors: true,
		}
	}

	return Selection{Word: idx.Random(src), Fallback: true}
}

// ShuffledLetters scrambles word with a Fisher–Yates pass from the end.
func ShuffledLetters(word string, src rng.Source) []string {
	letters := strings.Split(strings.ToUpper(word), "")
	for i := len(letters) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		letters[i], letters[j] = letters[j], letters[i]
	}
	return letters
}

// TrimRecent keeps the last max entries of list.
func TrimRecent(list []string, max int) []string {
	if len(list) <= max {
		return list
	}
	return list[len(list)-max:]
}
