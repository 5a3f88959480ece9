// internal/words/words.go
//
// Dictionary index for rack generation and submit validation.
//
// Responsibilities:
//   - Load the playable list from an environment-provided file or fall back to
//     the embedded default.
//   - Build an immutable Index with two lookup structures:
//       signature (letters sorted ascending) → words   (anagram groups)
//       anchor key (two letters, sorted)     → words   (anchor lookups)
//   - Supply helpers for validity checks, anagram lookups and seeded picks.
//
// Every word appears in its own signature bucket and once per position pair
// (C(5,2) = 10 entries) across the anchor buckets. A word with a repeated
// letter can therefore appear more than once in the same anchor bucket.
//
// Environment variables:
//   WORDS_FILE=/path/to/playable.txt
//
// Constraints:
//   • Words must be 5 alphabetic letters (a–z).
//   • Lists are normalized to lowercase; bucket contents are uppercase.

package words

import (
	"bufio"
	"errors"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/heatstack/assets"
	"github.com/robalobadob/heatstack/internal/rng"
)

// Length is the fixed word and rack length.
const Length = 5

// ErrEmpty is returned when a list yields no playable words.
var ErrEmpty = errors.New("words: playable list is empty")

// Index is built once and never mutated afterwards.
type Index struct {
	words      []string            // lowercase, insertion order
	valid      map[string]struct{} // lowercase
	signatures map[string][]string // uppercase signature → uppercase words
	anchors    map[string][]string // uppercase pair key → uppercase words
}

// Load reads WORDS_FILE when set, else the embedded default list.
func Load() (*Index, error) {
	var (
		list []string
		err  error
	)
	if path := os.Getenv("WORDS_FILE"); path != "" {
		list, err = readWordFile(path)
	} else {
		list, err = assets.PlayableList()
	}
	if err != nil {
		return nil, err
	}
	idx := NewIndex(list)
	if idx.Len() == 0 {
		return nil, ErrEmpty
	}
	return idx, nil
}

// NewIndex normalizes list (lowercase, trimmed, 5 letters a–z, first
// occurrence wins) and builds the lookup buckets.
func NewIndex(list []string) *Index {
	normalized := lo.Uniq(lo.FilterMap(list, func(w string, _ int) (string, bool) {
		w = strings.TrimSpace(strings.ToLower(w))
		return w, len(w) == Length && isAlpha(w)
	}))

	idx := &Index{
		words:      normalized,
		valid:      make(map[string]struct{}, len(normalized)),
		signatures: make(map[string][]string),
		anchors:    make(map[string][]string),
	}
	for _, w := range normalized {
		idx.valid[w] = struct{}{}
		upper := strings.ToUpper(w)
		sig := Signature(upper)
		idx.signatures[sig] = append(idx.signatures[sig], upper)
		for i := 0; i < len(upper); i++ {
			for j := i + 1; j < len(upper); j++ {
				key := AnchorKey(upper[i:i+1], upper[j:j+1])
				idx.anchors[key] = append(idx.anchors[key], upper)
			}
		}
	}
	return idx
}

// Signature returns the letters of s upper-cased and sorted ascending.
func Signature(s string) string {
	b := []byte(strings.ToUpper(s))
	slices.Sort(b)
	return string(b)
}

// AnchorKey returns the order-independent key for a letter pair.
func AnchorKey(a, b string) string {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	if b < a {
		a, b = b, a
	}
	return a + b
}

// Len reports how many playable words the index holds.
func (x *Index) Len() int { return len(x.words) }

// Words returns the playable list in insertion order (lowercase).
func (x *Index) Words() []string { return slices.Clone(x.words) }

// Valid reports whether w is playable (case-insensitive).
func (x *Index) Valid(w string) bool {
	_, ok := x.valid[strings.ToLower(w)]
	return ok
}

// Random returns a uniformly chosen word (uppercase) or "" for an empty index.
func (x *Index) Random(src rng.Source) string {
	if len(x.words) == 0 {
		return ""
	}
	return strings.ToUpper(x.words[src.Intn(len(x.words))])
}

// Anagrams returns every playable arrangement of letters, in insertion order.
// The returned slice must not be modified.
func (x *Index) Anagrams(letters []string) []string {
	return x.signatures[Signature(strings.Join(letters, ""))]
}

// FindAnagram returns the first playable arrangement of letters, or "".
func (x *Index) FindAnagram(letters []string) string {
	if found := x.Anagrams(letters); len(found) > 0 {
		return found[0]
	}
	return ""
}

// CanForm reports whether letters spell at least one playable word.
func (x *Index) CanForm(letters []string) bool {
	return x.FindAnagram(letters) != ""
}

// WithAnchors returns the words containing both letters. The returned slice
// must not be modified.
func (x *Index) WithAnchors(a, b string) []string {
	return x.anchors[AnchorKey(a, b)]
}

// RandomWithAnchors picks a word containing both letters, skipping excluded
// words while an alternative exists. With no candidates at all it falls back
// to Random.
func (x *Index) RandomWithAnchors(a, b string, src rng.Source, exclude []string) string {
	candidates := x.WithAnchors(a, b)
	pool := candidates
	if len(exclude) > 0 {
		skip := lo.SliceToMap(exclude, func(w string) (string, struct{}) { return w, struct{}{} })
		filtered := lo.Filter(candidates, func(w string, _ int) bool {
			_, ok := skip[w]
			return !ok
		})
		if len(filtered) > 0 {
			pool = filtered
		}
	}
	if len(pool) == 0 {
		return x.Random(src)
	}
	return pool[src.Intn(len(pool))]
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
