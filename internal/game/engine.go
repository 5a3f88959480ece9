// internal/game/engine.go
//
// Run orchestrator, written as a reducer: Apply(state, action) returns the
// next state plus an Outcome describing what happened.
//
// Lifecycle:
//   menu ──Start──▶ playing ──Tick to 0 / Finish / late Submit──▶ finished
//   any  ──Menu───▶ menu
//
// Notes:
//   - The RNG lives inside State, so a run is fully described by its value.
//   - Rejections come back as Outcome.Err with the input state untouched.
//   - The engine never performs I/O; the daily gate and stats recording are
//     supplied or consumed by the caller.

package game

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/heatstack/internal/chain"
	"github.com/robalobadob/heatstack/internal/daily"
	"github.com/robalobadob/heatstack/internal/heat"
	"github.com/robalobadob/heatstack/internal/modifiers"
	"github.com/robalobadob/heatstack/internal/rng"
	"github.com/robalobadob/heatstack/internal/scoring"
	"github.com/robalobadob/heatstack/internal/words"
)

// DailyGate is the daily lock collaborator consulted on daily starts.
type DailyGate interface {
	Locked(seed int64) bool
	Lock(seed int64)
}

// Engine holds the collaborators shared by every run.
type Engine struct {
	Words *words.Index
	Clock daily.Clock
	Zone  *time.Location
}

// NewEngine wires an engine; a nil clock means the system clock and a nil
// zone means UTC.
func NewEngine(idx *words.Index, clock daily.Clock, zone *time.Location) *Engine {
	if clock == nil {
		clock = daily.SystemClock{}
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Engine{Words: idx, Clock: clock, Zone: zone}
}

// Outcome reports the side effects of one Apply call.
type Outcome struct {
	Err      error
	Result   *RunResult // set on the transition into finished
	Fallback bool       // rack generation fell back to an unanchored word
}

// Action is implemented by every input the reducer accepts.
type Action interface{ action() }

type (
	Start struct {
		Mode Mode
		Gate DailyGate
	}
	Tick        struct{ Elapsed time.Duration }
	Toggle      struct{ Index int }
	StageLetter struct{ Letter string }
	Pop         struct{}
	ClearStage  struct{}
	Shuffle     struct{}
	Reroll      struct{}
	AutoFill    struct{}
	Submit      struct{}
	Finish      struct{}
	Menu        struct{}
)

func (Start) action() {}
func (Tick) action() {}
func (Toggle) action() {}
func (StageLetter) action() {}
func (Pop) action() {}
func (ClearStage) action() {}
func (Shuffle) action() {}
func (Reroll) action() {}
func (AutoFill) action() {}
func (Submit) action() {}
func (Finish) action() {}
func (Menu) action() {}

// Apply runs one action against s.
func (e *Engine) Apply(s State, a Action) (State, Outcome) {
	switch a := a.(type) {
	case Start:
		return e.start(s, a)
	case Menu:
		return NewState(), Outcome{}
	case Tick:
		return e.tick(s, a.Elapsed)
	}

	if s.Status != StatusPlaying {
		return s, Outcome{Err: ErrNotPlaying}
	}

	switch a := a.(type) {
	case Toggle:
		return toggle(s, a.Index), Outcome{}
	case StageLetter:
		return stageLetter(s, a.Letter), Outcome{}
	case Pop:
		if len(s.StageIDs) > 0 {
			s.StageIDs = s.StageIDs[:len(s.StageIDs)-1 : len(s.StageIDs)-1]
		}
		return s, Outcome{}
	case ClearStage:
		s.StageIDs = nil
		return s, Outcome{}
	case Shuffle:
		s.Dice = ShuffleDice(s.Dice, &s.rng)
		s.StageIDs = nil
		s.RackAge = 0
		return s, Outcome{}
	case Reroll:
		return e.reroll(s)
	case AutoFill:
		return e.autoFill(s)
	case Submit:
		return e.submit(s)
	case Finish:
		return e.finish(s)
	}
	return s, Outcome{Err: ErrUnknownAction}
}

func (e *Engine) start(s State, a Start) (State, Outcome) {
	if s.Status == StatusPlaying {
		return s, Outcome{Err: ErrRunActive}
	}
	if e.Words == nil || e.Words.Len() == 0 {
		return s, Outcome{Err: ErrNotLoaded}
	}
	mode := a.Mode
	if mode != ModeBlitz {
		mode = ModeDaily
	}

	now := e.Clock.Now()
	var seed int64
	if mode == ModeDaily {
		seed = daily.Seed(now, e.Zone)
		if a.Gate != nil && a.Gate.Locked(seed) {
			return s, Outcome{Err: ErrDailyLocked}
		}
	} else {
		seed = now.UnixMilli()
	}

	mod := modifiers.None
	if mode == ModeDaily {
		mod = modifiers.ForSeed(seed).ID
	}

	next := NewState()
	next.Mode = mode
	next.Status = StatusPlaying
	next.Seed = seed
	next.Modifier = mod
	next.rng = rng.New(seed)
	if mode == ModeDaily {
		next.DayNumber = daily.DayNumberForSeed(seed)
	}

	sel := chain.ChooseNextRackSource(e.Words, "", &next.rng, nil)
	next.Dice = DiceFromWord(sel.Word, &next.rng)
	next.Recent = []string{sel.Word}
	next.TimeLeft = mode.Duration()
	next.Heat = modifiers.StartHeat(mod)
	next.RerollsLeft = modifiers.StartingRerolls(StartingRerolls, mod)

	if mode == ModeDaily && a.Gate != nil {
		a.Gate.Lock(seed)
	}

	log.Debug().
		Str("mode", string(mode)).
		Int64("seed", seed).
		Str("modifier", string(mod)).
		Msg("run started")
	return next, Outcome{}
}

func (e *Engine) tick(s State, elapsed time.Duration) (State, Outcome) {
	if s.Status != StatusPlaying || elapsed <= 0 {
		return s, Outcome{}
	}
	s.TimeLeft = max(0, s.TimeLeft-elapsed)
	s.Heat = heat.Decay(s.Heat, elapsed, modifiers.DecayMultiplier(s.Modifier))
	s.RackAge = min(MaxRackAge, s.RackAge+elapsed)
	if s.TimeLeft <= 0 {
		return e.finish(s)
	}
	return s, Outcome{}
}

func toggle(s State, index int) State {
	if index < 0 || index >= len(s.Dice) {
		return s
	}
	id := s.Dice[index].ID
	if lo.Contains(s.StageIDs, id) {
		s.StageIDs = lo.Without(s.StageIDs, id)
		return s
	}
	if len(s.StageIDs) >= len(s.Dice) {
		return s
	}
	s.StageIDs = appendCopy(s.StageIDs, id)
	return s
}

func stageLetter(s State, letter string) State {
	upper := strings.ToUpper(letter)
	if len(upper) != 1 || upper[0] < 'A' || upper[0] > 'Z' {
		return s
	}
	if len(s.StageIDs) >= len(s.Dice) {
		return s
	}
	d, ok := lo.Find(s.Dice, func(d Die) bool {
		return d.Letter == upper && !lo.Contains(s.StageIDs, d.ID)
	})
	if !ok {
		return s
	}
	s.StageIDs = appendCopy(s.StageIDs, d.ID)
	return s
}

func (e *Engine) reroll(s State) (State, Outcome) {
	if modifiers.RerollDisabled(s.Modifier) {
		return s, Outcome{Err: ErrRerollDisabled}
	}
	if s.RerollsLeft <= 0 {
		return s, Outcome{Err: ErrNoCharges}
	}

	var source string
	if s.HasAnchors {
		source = e.Words.RandomWithAnchors(s.Anchors[0], s.Anchors[1], &s.rng, s.Recent)
	} else {
		source = e.Words.Random(&s.rng)
	}
	s.Dice = DiceFromWord(source, &s.rng)
	s.RerollsLeft--
	s.StageIDs = nil
	s.RackAge = 0
	s.Recent = chain.TrimRecent(appendCopy(s.Recent, source), chain.RecentMax)
	return s, Outcome{}
}

func (e *Engine) autoFill(s State) (State, Outcome) {
	if modifiers.RerollDisabled(s.Modifier) {
		return s, Outcome{Err: ErrRerollDisabled}
	}
	if s.RerollsLeft < autoFillCharges {
		return s, Outcome{Err: ErrNoCharges}
	}
	candidates := e.Words.Anagrams(rackLetters(s.Dice))
	if len(candidates) == 0 {
		return s, Outcome{Err: ErrNoAnagram}
	}
	candidate, ok := lo.Find(candidates, func(w string) bool {
		return !lo.Contains(s.UsedWords, strings.ToLower(w))
	})
	if !ok {
		candidate = candidates[0]
	}
	ids, ok := stageIDsForWord(candidate, s.Dice)
	if !ok {
		return s, Outcome{Err: ErrNoAnagram}
	}
	s.StageIDs = ids
	s.RerollsLeft -= autoFillCharges
	s.Heat = heat.Clamp(s.Heat - autoFillHeatCost)
	return s, Outcome{}
}

func (e *Engine) submit(s State) (State, Outcome) {
	if s.TimeLeft <= 0 {
		return e.finish(s)
	}
	if len(s.StageIDs) != len(s.Dice) {
		return s, Outcome{Err: ErrIncomplete}
	}
	word := strings.ToLower(StageWord(s))
	if !e.Words.Valid(word) {
		return s, Outcome{Err: ErrInvalidWord}
	}
	if lo.Contains(s.UsedWords, word) {
		return s, Outcome{Err: ErrDuplicateWord}
	}

	upper := strings.ToUpper(word)
	combo, overlap := chain.NextCombo(s.LastWord, s.Combo, upper)
	nextHeat := heat.ApplyGain(s.Heat, combo)
	sc := scoring.WordScore(scoring.Input{
		Word:        upper,
		RerollsLeft: s.RerollsLeft,
		Heat:        nextHeat,
		Combo:       combo,
		RackAge:     s.RackAge,
	})

	sel := chain.ChooseNextRackSource(e.Words, upper, &s.rng, s.Recent)
	if sel.Fallback {
		log.Debug().Str("after", upper).Int64("seed", s.Seed).Msg("rack generation fell back to random word")
	}

	anchors := [2]string{"A", "E"}
	if sel.HasAnchors {
		anchors = sel.Anchors
	}
	rec := WordRecord{
		Word:        upper,
		Combo:       combo,
		Overlap:     overlap,
		ScoreGain:   sc.Gain,
		HeatAfter:   nextHeat,
		Multiplier:  sc.Multiplier,
		RerollsLeft: s.RerollsLeft,
		Anchors:     anchors,
		SubmittedAt: e.Clock.Now(),
	}

	s.Score += sc.Gain
	s.Combo = combo
	s.MaxCombo = max(s.MaxCombo, combo)
	s.Heat = nextHeat
	s.UsedWords = appendCopy(s.UsedWords, word)
	s.LastWord = upper
	s.History = appendCopy(s.History, rec)
	s.Anchors, s.HasAnchors = sel.Anchors, sel.HasAnchors
	s.Dice = DiceFromWord(sel.Word, &s.rng)
	s.StageIDs = nil
	s.RackAge = 0
	s.Recent = chain.TrimRecent(appendCopy(s.Recent, sel.Word), chain.RecentMax)
	return s, Outcome{Fallback: sel.Fallback}
}

func (e *Engine) finish(s State) (State, Outcome) {
	if s.Status != StatusPlaying {
		return s, Outcome{Err: ErrNotPlaying}
	}

	trace := lo.Map(s.History, func(r WordRecord, _ int) float64 { return r.HeatAfter })
	maxHeat := max(s.Heat, modifiers.StartHeat(s.Modifier))
	if len(trace) > 0 {
		maxHeat = max(maxHeat, lo.Max(trace))
	}
	medal := scoring.None
	if s.Mode == ModeDaily {
		medal = scoring.MedalFor(s.Score)
	}

	res := &RunResult{
		Mode:        s.Mode,
		DayNumber:   s.DayNumber,
		Seed:        s.Seed,
		Modifier:    s.Modifier,
		Score:       s.Score,
		WordsPlayed: len(s.History),
		MaxCombo:    s.MaxCombo,
		MaxHeat:     maxHeat,
		Medal:       medal,
		HeatTrace:   trace,
		TopChain:    TopChainOf(s.History),
		EndedAt:     e.Clock.Now().UTC(),
	}

	s.Status = StatusFinished
	s.TimeLeft = 0
	s.StageIDs = nil
	s.Result = res

	log.Debug().
		Str("mode", string(s.Mode)).
		Int64("seed", s.Seed).
		Int("score", s.Score).
		Int("words", res.WordsPlayed).
		Msg("run finished")
	return s, Outcome{Result: res}
}

// TopChainOf extracts the longest combo chain from a run's history.
func TopChainOf(history []WordRecord) []string {
	return chain.TopChain(lo.Map(history, func(r WordRecord, _ int) chain.Link {
		return chain.Link{Word: r.Word, Combo: r.Combo}
	}))
}

// appendCopy appends v to a fresh copy of list so the caller's backing array
// is never shared with a later state.
func appendCopy[T any](list []T, v T) []T {
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	return append(out, v)
}
