// cmd/heatstack-sim/main.go
//
// Headless Heatstack runs driven by a greedy bot. Useful for balancing the
// heat curve and medal thresholds without a client.
//
//	heatstack-sim -mode daily -seed 20260215 -runs 1 -copy
//	heatstack-sim -mode blitz -runs 20 -tick 100 -think 8

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/heatstack/internal/daily"
	"github.com/robalobadob/heatstack/internal/game"
	"github.com/robalobadob/heatstack/internal/share"
	"github.com/robalobadob/heatstack/internal/words"
)

type config struct {
	mode  game.Mode
	tick  time.Duration
	think int // ticks between moves
}

type runStats struct {
	runIndex  int
	result    game.RunResult
	rerolls   int
	stuck     int // moves with no playable word and no charges
	fallbacks int
	ticks     int
}

func main() {
	var (
		mode    string
		seed    int64
		runs    int
		tickMs  int
		think   int
		copyOut bool
		verbose bool
	)
	flag.StringVar(&mode, "mode", "daily", "run mode: daily or blitz")
	flag.Int64Var(&seed, "seed", 0, "seed override (daily: YYYYMMDD, blitz: unix ms); 0 means now")
	flag.IntVar(&runs, "runs", 1, "number of runs")
	flag.IntVar(&tickMs, "tick", 250, "tick size in milliseconds")
	flag.IntVar(&think, "think", 4, "ticks between bot moves")
	flag.BoolVar(&copyOut, "copy", false, "copy the last share text to the clipboard")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	m, ok := game.ParseMode(mode)
	if !ok {
		fmt.Printf("error: unsupported mode %q (supported: daily, blitz)\n", mode)
		return
	}
	if runs <= 0 || tickMs <= 0 || think <= 0 {
		fmt.Println("error: -runs, -tick and -think must be > 0")
		return
	}

	zone, err := daily.Zone(os.Getenv("DAILY_TZ"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	idx, err := words.Load()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	cfg := config{mode: m, tick: time.Duration(tickMs) * time.Millisecond, think: think}
	fmt.Printf("=== Heatstack Sim ===\n")
	fmt.Printf("mode=%s runs=%d tick=%s think=%d words=%d\n\n", m, runs, cfg.tick, think, idx.Len())

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		eng := game.NewEngine(idx, clockFor(m, seed, i, zone), zone)
		st := simulate(eng, cfg)
		st.runIndex = i + 1
		all = append(all, st)
		printRun(st)
	}
	printAggregate(all)

	if copyOut {
		text := share.Text(all[len(all)-1].result)
		if err := clipboard.WriteAll(text); err != nil {
			fmt.Println("clipboard:", err)
			return
		}
		fmt.Println("share text copied to clipboard")
	}
}

// clockFor pins the engine clock so a seed override reproduces a run. Daily
// seeds land at local noon of that date; blitz seeds are the start instant.
// Without an override blitz runs still get distinct seeds.
func clockFor(mode game.Mode, seed int64, run int, zone *time.Location) daily.Clock {
	if seed == 0 {
		if mode == game.ModeBlitz {
			return daily.FixedClock{T: time.Now().Add(time.Duration(run) * time.Millisecond)}
		}
		return daily.SystemClock{}
	}
	if mode == game.ModeDaily {
		d := daily.SeedDate(seed)
		return daily.FixedClock{T: time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, zone)}
	}
	return daily.FixedClock{T: time.UnixMilli(seed + int64(run))}
}

// simulate plays one run to completion.
func simulate(eng *game.Engine, cfg config) runStats {
	var st runStats
	s, out := eng.Apply(game.NewState(), game.Start{Mode: cfg.mode})
	if out.Err != nil {
		log.Error().Err(out.Err).Msg("start")
		return st
	}
	for {
		st.ticks++
		if st.ticks%cfg.think == 0 {
			s = move(eng, s, &st)
		}
		if s.Status != game.StatusPlaying {
			break
		}
		s, out = eng.Apply(s, game.Tick{Elapsed: cfg.tick})
		if out.Result != nil {
			st.result = *out.Result
			break
		}
	}
	if s.Result != nil {
		st.result = *s.Result
	}
	return st
}

// move submits the first unused arrangement of the rack, or rerolls.
func move(eng *game.Engine, s game.State, st *runStats) game.State {
	rack := strings.Split(game.RackWord(s.Dice), "")
	word, ok := lo.Find(eng.Words.Anagrams(rack), func(w string) bool {
		return !lo.Contains(s.UsedWords, strings.ToLower(w))
	})
	if !ok {
		next, out := eng.Apply(s, game.Reroll{})
		if out.Err != nil {
			st.stuck++
			return s
		}
		st.rerolls++
		return next
	}

	s, _ = eng.Apply(s, game.ClearStage{})
	for _, r := range word {
		s, _ = eng.Apply(s, game.StageLetter{Letter: string(r)})
	}
	next, out := eng.Apply(s, game.Submit{})
	if out.Err != nil {
		log.Debug().Err(out.Err).Str("word", word).Msg("bot submit rejected")
		return s
	}
	if out.Fallback {
		st.fallbacks++
	}
	if out.Result != nil {
		st.result = *out.Result
	}
	return next
}

func printRun(st runStats) {
	r := st.result
	fmt.Printf("--- run %d (seed %d) ---\n", st.runIndex, r.Seed)
	fmt.Printf("score=%d words=%d max_combo=%d max_heat=%.1f medal=%s\n",
		r.Score, r.WordsPlayed, r.MaxCombo, r.MaxHeat, r.Medal)
	fmt.Printf("rerolls=%d stuck=%d fallbacks=%d ticks=%d\n", st.rerolls, st.stuck, st.fallbacks, st.ticks)
	fmt.Println(share.Text(r))
	fmt.Println()
}

func printAggregate(all []runStats) {
	if len(all) < 2 {
		return
	}
	scores := lo.Map(all, func(st runStats, _ int) int { return st.result.Score })
	medals := lo.CountValuesBy(all, func(st runStats) string { return string(st.result.Medal) })
	fmt.Printf("=== Aggregate (%d runs) ===\n", len(all))
	avg := float64(lo.Sum(scores)) / float64(len(scores))
	fmt.Printf("score avg=%.1f min=%d max=%d\n", avg, lo.Min(scores), lo.Max(scores))
	fmt.Printf("medals gold=%d silver=%d bronze=%d none=%d\n",
		medals["Gold"], medals["Silver"], medals["Bronze"], medals["None"])
}
