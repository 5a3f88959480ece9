// internal/stats/stats.go
//
// Per-player lifetime statistics, updated once per finished run.
//
// Daily streak rule: a daily finished exactly one calendar day after the
// previous one extends the streak; any gap resets it to 1; a second daily on
// the same date leaves it unchanged. Dates are "YYYY-MM-DD" in the daily
// timezone and are compared as UTC calendar dates.

package stats

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/robalobadob/heatstack/internal/game"
	"github.com/robalobadob/heatstack/internal/scoring"
)

// MaxPlayedSeeds bounds PlayedDailySeeds.
const MaxPlayedSeeds = 120

type Stats struct {
	GamesPlayed         int             `json:"gamesPlayed"`
	BestBlitzScore      int             `json:"bestBlitzScore"`
	BestDailyScore      int             `json:"bestDailyScore"`
	DailyStreak         int             `json:"dailyStreak"`
	MaxDailyStreak      int             `json:"maxDailyStreak"`
	LastDailyPlayedDate string          `json:"lastDailyPlayedDate,omitempty"`
	LastDailyScore      int             `json:"lastDailyScore"`
	LastDailyMedal      scoring.Medal   `json:"lastDailyMedal"`
	LastDailyResult     *game.RunResult `json:"lastDailyResult,omitempty"`
	BronzeMedals        int             `json:"bronzeMedals"`
	SilverMedals        int             `json:"silverMedals"`
	GoldMedals          int             `json:"goldMedals"`
	TotalWordsPlayed    int             `json:"totalWordsPlayed"`
	PlayedDailySeeds    []int64         `json:"playedDailySeeds"`
}

// New returns zeroed stats.
func New() Stats {
	return Stats{LastDailyMedal: scoring.None, PlayedDailySeeds: []int64{}}
}

// Record folds one finished run into s. today is the current daily date key.
func (s Stats) Record(r game.RunResult, today string) Stats {
	s.GamesPlayed++
	s.TotalWordsPlayed += r.WordsPlayed

	if r.Mode == game.ModeBlitz {
		s.BestBlitzScore = max(s.BestBlitzScore, r.Score)
		return s
	}

	if s.LastDailyPlayedDate != today {
		streak := 1
		if s.LastDailyPlayedDate != "" && diffDays(s.LastDailyPlayedDate, today) == 1 {
			streak = s.DailyStreak + 1
		}
		s.DailyStreak = streak
		s.MaxDailyStreak = max(s.MaxDailyStreak, streak)
	}

	s.LastDailyPlayedDate = today
	s.LastDailyScore = r.Score
	s.LastDailyMedal = r.Medal
	snapshot := r
	snapshot.HeatTrace = slices.Clone(r.HeatTrace)
	snapshot.TopChain = slices.Clone(r.TopChain)
	s.LastDailyResult = &snapshot

	switch r.Medal {
	case scoring.Bronze:
		s.BronzeMedals++
	case scoring.Silver:
		s.SilverMedals++
	case scoring.Gold:
		s.GoldMedals++
	}
	s.BestDailyScore = max(s.BestDailyScore, r.Score)

	seeds := append(lo.Without(s.PlayedDailySeeds, r.Seed), r.Seed)
	if len(seeds) > MaxPlayedSeeds {
		seeds = seeds[len(seeds)-MaxPlayedSeeds:]
	}
	s.PlayedDailySeeds = seeds
	return s
}

// CanPlayDaily reports whether a daily for seed may still be started today.
func (s Stats) CanPlayDaily(seed int64, today string) bool {
	if lo.Contains(s.PlayedDailySeeds, seed) {
		return false
	}
	return s.LastDailyPlayedDate != today
}

// diffDays counts whole days from a to b; unparsable dates count as a gap.
func diffDays(a, b string) int {
	ta, err := time.Parse(time.DateOnly, a)
	if err != nil {
		return 0
	}
	tb, err := time.Parse(time.DateOnly, b)
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}
