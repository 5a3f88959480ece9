package chain

import "strings"

// Overlap counts letters shared by a and b as multisets, ignoring case.
func Overlap(a, b string) int {
	counts := make(map[rune]int, len(a))
	for _, r := range strings.ToUpper(a) {
		counts[r]++
	}
	n := 0
	for _, r := range strings.ToUpper(b) {
		if counts[r] > 0 {
			n++
			counts[r]--
		}
	}
	return n
}

// NextCombo returns the combo for playing next after prev. The first word of
// a run (prev == "") always starts at combo 1.
func NextCombo(prev string, prevCombo int, next string) (combo, overlap int) {
	if prev == "" {
		return 1, 0
	}
	overlap = Overlap(prev, next)
	if overlap >= 2 {
		return prevCombo + 1, overlap
	}
	return 1, overlap
}

// Link is the part of a played word TopChain needs.
type Link struct {
	Word  string
	Combo int
}

const topChainMax = 6

// TopChain returns the longest contiguous stretch of history in which every
// word after the first extended the combo. Ties keep the earliest stretch.
func TopChain(history []Link) []string {
	if len(history) == 0 {
		return nil
	}

	bestStart, bestLen, start := 0, 1, 0
	for i := 1; i < len(history); i++ {
		if history[i].Combo <= 1 {
			if n := i - start; n > bestLen {
				bestStart, bestLen = start, n
			}
			start = i
		}
	}
	if n := len(history) - start; n > bestLen {
		bestStart, bestLen = start, n
	}

	bestLen = min(bestLen, topChainMax)
	out := make([]string, 0, bestLen)
	for _, l := range history[bestStart : bestStart+bestLen] {
		out = append(out, strings.ToUpper(l.Word))
	}
	return out
}
