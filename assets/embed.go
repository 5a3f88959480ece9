package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed playable.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// PlayableList returns the embedded default playable word list.
func PlayableList() ([]string, error) {
	return readLines("playable.txt")
}
