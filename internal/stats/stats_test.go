package stats

import (
	"testing"

	"github.com/robalobadob/heatstack/internal/game"
	"github.com/robalobadob/heatstack/internal/scoring"
)

func dailyRun(seed int64, score int, medal scoring.Medal) game.RunResult {
	return game.RunResult{
		Mode: game.ModeDaily, Seed: seed, Score: score, Medal: medal,
		WordsPlayed: 6, HeatTrace: []float64{40, 60}, TopChain: []string{"CRANE"},
	}
}

func TestRecordBlitz(t *testing.T) {
	s := New().
		Record(game.RunResult{Mode: game.ModeBlitz, Score: 900, WordsPlayed: 4}, "2026-02-10").
		Record(game.RunResult{Mode: game.ModeBlitz, Score: 700, WordsPlayed: 3}, "2026-02-10")

	if s.GamesPlayed != 2 || s.BestBlitzScore != 900 || s.TotalWordsPlayed != 7 {
		t.Fatalf("stats = %+v", s)
	}
	if s.DailyStreak != 0 || s.LastDailyPlayedDate != "" || len(s.PlayedDailySeeds) != 0 {
		t.Fatalf("blitz touched daily fields: %+v", s)
	}
}

func TestRecordDailyStreak(t *testing.T) {
	tests := []struct {
		name       string
		dates      []string
		wantStreak int
		wantMax    int
	}{
		{"first", []string{"2026-02-10"}, 1, 1},
		{"consecutive", []string{"2026-02-10", "2026-02-11", "2026-02-12"}, 3, 3},
		{"gap resets", []string{"2026-02-10", "2026-02-11", "2026-02-13"}, 1, 2},
		{"same day twice", []string{"2026-02-10", "2026-02-11", "2026-02-11"}, 2, 2},
		{"month boundary", []string{"2026-02-28", "2026-03-01"}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for i, d := range tt.dates {
				s = s.Record(dailyRun(int64(20260300+i), 1000, scoring.None), d)
			}
			if s.DailyStreak != tt.wantStreak || s.MaxDailyStreak != tt.wantMax {
				t.Fatalf("streak=%d max=%d, want %d/%d", s.DailyStreak, s.MaxDailyStreak, tt.wantStreak, tt.wantMax)
			}
		})
	}
}

func TestRecordDailyMedalsAndSnapshot(t *testing.T) {
	r := dailyRun(20260210, 2300, scoring.Silver)
	s := New().Record(r, "2026-02-10")
	s = s.Record(dailyRun(20260211, 3300, scoring.Gold), "2026-02-11")
	s = s.Record(dailyRun(20260212, 1500, scoring.Bronze), "2026-02-12")

	if s.BronzeMedals != 1 || s.SilverMedals != 1 || s.GoldMedals != 1 {
		t.Fatalf("medals = %d/%d/%d", s.BronzeMedals, s.SilverMedals, s.GoldMedals)
	}
	if s.BestDailyScore != 3300 || s.LastDailyScore != 1500 || s.LastDailyMedal != scoring.Bronze {
		t.Fatalf("stats = %+v", s)
	}
	if s.LastDailyResult == nil || s.LastDailyResult.Seed != 20260212 {
		t.Fatalf("last result = %+v", s.LastDailyResult)
	}

	// The stored snapshot does not alias the caller's slices.
	first := New().Record(r, "2026-02-10")
	r.HeatTrace[0] = 99
	if first.LastDailyResult.HeatTrace[0] != 40 {
		t.Fatal("snapshot aliases heat trace")
	}
}

func TestPlayedSeedsDedupAndTrim(t *testing.T) {
	s := New()
	for i := 0; i < MaxPlayedSeeds+5; i++ {
		s = s.Record(dailyRun(int64(i), 0, scoring.None), "2026-02-10")
	}
	if len(s.PlayedDailySeeds) != MaxPlayedSeeds || s.PlayedDailySeeds[0] != 5 {
		t.Fatalf("seeds len=%d first=%d", len(s.PlayedDailySeeds), s.PlayedDailySeeds[0])
	}

	s = s.Record(dailyRun(50, 0, scoring.None), "2026-02-10")
	if n := len(s.PlayedDailySeeds); n != MaxPlayedSeeds || s.PlayedDailySeeds[n-1] != 50 {
		t.Fatalf("re-played seed not moved to end: %v", s.PlayedDailySeeds[n-3:])
	}
}

func TestCanPlayDaily(t *testing.T) {
	s := New()
	if !s.CanPlayDaily(20260210, "2026-02-10") {
		t.Fatal("fresh stats blocked")
	}
	s = s.Record(dailyRun(20260210, 100, scoring.None), "2026-02-10")
	if s.CanPlayDaily(20260210, "2026-02-11") {
		t.Fatal("played seed allowed")
	}
	if s.CanPlayDaily(20260299, "2026-02-10") {
		t.Fatal("second daily on same date allowed")
	}
	if !s.CanPlayDaily(20260211, "2026-02-11") {
		t.Fatal("next day blocked")
	}
}
