package game

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/heatstack/internal/daily"
	"github.com/robalobadob/heatstack/internal/modifiers"
	"github.com/robalobadob/heatstack/internal/scoring"
	"github.com/robalobadob/heatstack/internal/words"
)

// Noon in Los Angeles on 2026-10-17.
var noon = time.Date(2026, time.October, 17, 19, 0, 0, 0, time.UTC)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	idx := words.NewIndex([]string{
		"crane", "trace", "caper", "clear", "pearl",
		"crown", "reach", "brace", "cared", "flare",
		"forth", "nacre",
	})
	loc, err := daily.Zone(daily.DefaultZone)
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(idx, daily.FixedClock{T: noon}, loc)
}

func mustStart(t *testing.T, e *Engine, mode Mode) State {
	t.Helper()
	s, out := e.Apply(NewState(), Start{Mode: mode})
	if out.Err != nil {
		t.Fatalf("start %s: %v", mode, out.Err)
	}
	return s
}

// withRack replaces the rack so tests can stage known words.
func withRack(s State, word string) State {
	s.Dice = DiceFromLetters(strings.Split(word, ""))
	s.StageIDs = nil
	return s
}

func stage(t *testing.T, e *Engine, s State, word string) State {
	t.Helper()
	for _, r := range word {
		s, _ = e.Apply(s, StageLetter{Letter: string(r)})
	}
	if got := StageWord(s); got != strings.ToUpper(word) {
		t.Fatalf("staged %q, want %q", got, strings.ToUpper(word))
	}
	return s
}

type fakeGate struct {
	locked map[int64]bool
	writes []int64
}

func (g *fakeGate) Locked(seed int64) bool { return g.locked[seed] }
func (g *fakeGate) Lock(seed int64)        { g.writes = append(g.writes, seed) }

func TestStartBlitz(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)

	if s.Status != StatusPlaying || s.Mode != ModeBlitz {
		t.Fatalf("status=%s mode=%s", s.Status, s.Mode)
	}
	if s.Seed != noon.UnixMilli() {
		t.Errorf("seed = %d", s.Seed)
	}
	if s.Modifier != modifiers.None || s.Heat != 25 || s.RerollsLeft != StartingRerolls {
		t.Errorf("modifier=%s heat=%v rerolls=%d", s.Modifier, s.Heat, s.RerollsLeft)
	}
	if s.TimeLeft != BlitzDuration {
		t.Errorf("time left = %v", s.TimeLeft)
	}
	if len(s.Dice) != DiceCount || !e.Words.CanForm(rackLetters(s.Dice)) {
		t.Errorf("rack %q is not a dictionary anagram", RackWord(s.Dice))
	}
	if len(s.Recent) != 1 {
		t.Errorf("recent = %v", s.Recent)
	}
	for i, d := range s.Dice {
		if d.ID != dieID(i) {
			t.Errorf("die %d has id %q", i, d.ID)
		}
	}
}

func TestBlitzFinishesAfterFullTick(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)

	s, out := e.Apply(s, Tick{Elapsed: 60_000 * time.Millisecond})
	if s.Status != StatusFinished {
		t.Fatalf("status = %s", s.Status)
	}
	if out.Result == nil || s.Result == nil {
		t.Fatal("finished without a result")
	}
	if out.Result.Medal != scoring.None {
		t.Errorf("blitz medal = %s", out.Result.Medal)
	}
	if !out.Result.EndedAt.Equal(noon) {
		t.Errorf("ended at %v", out.Result.EndedAt)
	}
}

func TestIrregularTicksConverge(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)
	for _, ms := range []int{16, 33, 20_000, 0, -5, 39_000} {
		s, _ = e.Apply(s, Tick{Elapsed: time.Duration(ms) * time.Millisecond})
		if s.Status != StatusPlaying {
			t.Fatalf("finished early after %dms tick", ms)
		}
	}
	s, out := e.Apply(s, Tick{Elapsed: 5 * time.Second})
	if s.Status != StatusFinished || out.Result == nil || s.TimeLeft != 0 {
		t.Fatalf("status=%s left=%v", s.Status, s.TimeLeft)
	}
	// Further ticks are ignored.
	if _, out := e.Apply(s, Tick{Elapsed: time.Second}); out.Result != nil || out.Err != nil {
		t.Fatalf("tick after finish produced %+v", out)
	}
}

func TestTickDecaysHeatAndAgesRack(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)
	s, _ = e.Apply(s, Tick{Elapsed: time.Second})
	if s.Heat != 22 || s.RackAge != time.Second || s.TimeLeft != 59*time.Second {
		t.Fatalf("heat=%v age=%v left=%v", s.Heat, s.RackAge, s.TimeLeft)
	}

	s.TimeLeft = time.Hour
	s, _ = e.Apply(s, Tick{Elapsed: 200 * time.Second})
	if s.RackAge != MaxRackAge {
		t.Fatalf("rack age = %v, want cap %v", s.RackAge, MaxRackAge)
	}
}

func TestDailyStartsAreDeterministic(t *testing.T) {
	a := mustStart(t, testEngine(t), ModeDaily)
	b := mustStart(t, testEngine(t), ModeDaily)

	if a.Seed != 20261017 || a.DayNumber != daily.DayNumberForSeed(20261017) {
		t.Fatalf("seed=%d day=%d", a.Seed, a.DayNumber)
	}
	if RackWord(a.Dice) != RackWord(b.Dice) {
		t.Fatalf("first racks differ: %q vs %q", RackWord(a.Dice), RackWord(b.Dice))
	}
	// 2026-10-17 draws Heat Bleed.
	if a.Modifier != modifiers.HeatBleed || a.Modifier != modifiers.ForSeed(a.Seed).ID {
		t.Fatalf("modifier = %s, want %s", a.Modifier, modifiers.HeatBleed)
	}
	if a.TimeLeft != DailyDuration {
		t.Fatalf("time left = %v", a.TimeLeft)
	}
}

func TestDailyGate(t *testing.T) {
	e := testEngine(t)

	gate := &fakeGate{locked: map[int64]bool{20261017: true}}
	s, out := e.Apply(NewState(), Start{Mode: ModeDaily, Gate: gate})
	if !errors.Is(out.Err, ErrDailyLocked) || s.Status != StatusMenu {
		t.Fatalf("err=%v status=%s", out.Err, s.Status)
	}
	if Message(out.Err) != "Daily already played today" {
		t.Fatalf("message = %q", Message(out.Err))
	}

	gate = &fakeGate{}
	if _, out := e.Apply(NewState(), Start{Mode: ModeDaily, Gate: gate}); out.Err != nil {
		t.Fatal(out.Err)
	}
	if len(gate.writes) != 1 || gate.writes[0] != 20261017 {
		t.Fatalf("lock writes = %v", gate.writes)
	}

	// Blitz never touches the gate.
	gate = &fakeGate{locked: map[int64]bool{20261017: true}}
	if _, out := e.Apply(NewState(), Start{Mode: ModeBlitz, Gate: gate}); out.Err != nil || len(gate.writes) != 0 {
		t.Fatalf("blitz err=%v writes=%v", out.Err, gate.writes)
	}
}

func TestStartRequiresDictionary(t *testing.T) {
	e := NewEngine(nil, daily.FixedClock{T: noon}, nil)
	if _, out := e.Apply(NewState(), Start{Mode: ModeBlitz}); !errors.Is(out.Err, ErrNotLoaded) {
		t.Fatalf("err = %v", out.Err)
	}
}

func TestStartWhilePlayingRejected(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)
	if _, out := e.Apply(s, Start{Mode: ModeBlitz}); !errors.Is(out.Err, ErrRunActive) {
		t.Fatalf("err = %v", out.Err)
	}
}

func TestStagingForth(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "HTROF")

	s = stage(t, e, s, "forth")

	// Full stage ignores more letters and taps.
	s, _ = e.Apply(s, StageLetter{Letter: "F"})
	if len(s.StageIDs) != 5 {
		t.Fatalf("stage grew to %d", len(s.StageIDs))
	}

	s, _ = e.Apply(s, Pop{})
	if StageWord(s) != "FORT" {
		t.Fatalf("after pop: %q", StageWord(s))
	}
	// Toggling a staged tile removes it; toggling again appends it.
	s, _ = e.Apply(s, Toggle{Index: 4}) // F
	if StageWord(s) != "ORT" {
		t.Fatalf("after toggle off: %q", StageWord(s))
	}
	s, _ = e.Apply(s, Toggle{Index: 4})
	if StageWord(s) != "ORTF" {
		t.Fatalf("after toggle on: %q", StageWord(s))
	}
	s, _ = e.Apply(s, Toggle{Index: 9})
	s, _ = e.Apply(s, StageLetter{Letter: "1"})
	s, _ = e.Apply(s, StageLetter{Letter: "Z"})
	if StageWord(s) != "ORTF" {
		t.Fatalf("invalid input changed stage: %q", StageWord(s))
	}
	s, _ = e.Apply(s, ClearStage{})
	if len(s.StageIDs) != 0 {
		t.Fatalf("stage not cleared: %v", s.StageIDs)
	}
}

func TestSubmitScoresAndAdvances(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "NACRE")
	s = stage(t, e, s, "crane")

	before := s
	s, out := e.Apply(s, Submit{})
	if out.Err != nil {
		t.Fatal(out.Err)
	}

	// base 144 × 1.25 (heat 25 → 38) + 14 + 45
	if s.Score != 239 || s.Combo != 1 || s.MaxCombo != 1 || s.Heat != 38 {
		t.Fatalf("score=%d combo=%d heat=%v", s.Score, s.Combo, s.Heat)
	}
	if len(s.History) != 1 || s.History[0].Word != "CRANE" || s.LastWord != "CRANE" {
		t.Fatalf("history=%+v last=%q", s.History, s.LastWord)
	}
	rec := s.History[0]
	if rec.HeatAfter != 38 || rec.Multiplier != 1.25 || rec.RerollsLeft != 4 || !rec.SubmittedAt.Equal(noon) {
		t.Fatalf("record = %+v", rec)
	}
	if s.HasAnchors && rec.Anchors != s.Anchors {
		t.Fatalf("record anchors %v, state anchors %v", rec.Anchors, s.Anchors)
	}
	if !s.HasAnchors && rec.Anchors != [2]string{"A", "E"} {
		t.Fatalf("fallback anchors %v", rec.Anchors)
	}
	if len(s.StageIDs) != 0 || s.RackAge != 0 || len(s.Recent) != 2 {
		t.Fatalf("stage=%v age=%v recent=%v", s.StageIDs, s.RackAge, s.Recent)
	}
	if !e.Words.CanForm(rackLetters(s.Dice)) {
		t.Fatalf("next rack %q is not a dictionary anagram", RackWord(s.Dice))
	}

	// The prior state is untouched.
	if len(before.History) != 0 || before.Score != 0 || len(before.UsedWords) != 0 {
		t.Fatalf("prior state mutated: %+v", before)
	}
}

func TestComboBuilds(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "CRANE")
	s = stage(t, e, s, "crane")
	s, _ = e.Apply(s, Submit{})

	s = withRack(s, "TRACE")
	s = stage(t, e, s, "trace")
	s, _ = e.Apply(s, Submit{})
	if s.Combo != 2 || s.History[1].Overlap != 4 {
		t.Fatalf("combo=%d overlap=%d", s.Combo, s.History[1].Overlap)
	}

	s = withRack(s, "FORTH")
	s = stage(t, e, s, "forth")
	s, _ = e.Apply(s, Submit{})
	// TRACE→FORTH shares R and T.
	if s.Combo != 3 || s.MaxCombo != 3 || s.History[2].Overlap != 2 {
		t.Fatalf("combo=%d max=%d", s.Combo, s.MaxCombo)
	}
	if got := strings.Join(TopChainOf(s.History), ","); got != "CRANE,TRACE,FORTH" {
		t.Fatalf("top chain = %q", got)
	}
}

func TestSubmitRejections(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "CRANE")

	s, _ = e.Apply(s, StageLetter{Letter: "C"})
	if _, out := e.Apply(s, Submit{}); !errors.Is(out.Err, ErrIncomplete) {
		t.Fatalf("incomplete: %v", out.Err)
	}
	if Message(ErrIncomplete) != "Fill all 5 stage slots first" {
		t.Fatal("incomplete message")
	}

	s = withRack(s, "NCERA")
	s = stage(t, e, s, "ncera")
	if got, out := e.Apply(s, Submit{}); !errors.Is(out.Err, ErrInvalidWord) || got.Score != 0 {
		t.Fatalf("invalid: %v", out.Err)
	}
	if Message(ErrInvalidWord) != "Not in the playable list" {
		t.Fatal("invalid message")
	}
}

func TestDuplicateSubmissionLeavesStateAlone(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "CRANE")
	s = stage(t, e, s, "crane")
	s, _ = e.Apply(s, Submit{})

	score, n := s.Score, len(s.History)
	s = withRack(s, "CRANE")
	s = stage(t, e, s, "CRANE")
	s, out := e.Apply(s, Submit{})
	if !errors.Is(out.Err, ErrDuplicateWord) {
		t.Fatalf("err = %v", out.Err)
	}
	if s.Score != score || len(s.History) != n {
		t.Fatalf("score %d→%d history %d→%d", score, s.Score, n, len(s.History))
	}
	if Message(out.Err) != "Word already used in this run" {
		t.Fatalf("message = %q", Message(out.Err))
	}
}

func TestSubmitAfterTimeoutFinishes(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "CRANE")
	s = stage(t, e, s, "crane")
	s.TimeLeft = 0
	s, out := e.Apply(s, Submit{})
	if s.Status != StatusFinished || out.Result == nil || out.Result.WordsPlayed != 0 {
		t.Fatalf("status=%s result=%+v", s.Status, out.Result)
	}
}

func TestRerollDoesNotRefillOnSubmit(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)
	s, out := e.Apply(s, Reroll{})
	if out.Err != nil || s.RerollsLeft != 3 || len(s.Recent) != 2 {
		t.Fatalf("err=%v rerolls=%d recent=%v", out.Err, s.RerollsLeft, s.Recent)
	}

	s = withRack(s, "CRANE")
	s = stage(t, e, s, "crane")
	s, _ = e.Apply(s, Submit{})
	if s.RerollsLeft != 3 {
		t.Fatalf("rerolls after submit = %d", s.RerollsLeft)
	}
	if s.History[0].RerollsLeft != 3 {
		t.Fatalf("record rerolls = %d", s.History[0].RerollsLeft)
	}
}

func TestRerollKeepsAnchors(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "CRANE")
	s = stage(t, e, s, "crane")
	s, _ = e.Apply(s, Submit{})

	anchors, has := s.Anchors, s.HasAnchors
	s, _ = e.Apply(s, Reroll{})
	if s.Anchors != anchors || s.HasAnchors != has {
		t.Fatalf("anchors changed %v→%v", anchors, s.Anchors)
	}
	if has {
		rack := RackWord(s.Dice)
		for _, a := range anchors {
			if !strings.Contains(rack, a) {
				t.Fatalf("rack %q missing anchor %q", rack, a)
			}
		}
	}
}

func TestRerollChargesRunOut(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)
	for i := 0; i < StartingRerolls; i++ {
		s, _ = e.Apply(s, Reroll{})
	}
	before := RackWord(s.Dice)
	s, out := e.Apply(s, Reroll{})
	if !errors.Is(out.Err, ErrNoCharges) || RackWord(s.Dice) != before {
		t.Fatalf("err=%v", out.Err)
	}
	if _, out := e.Apply(s, AutoFill{}); !errors.Is(out.Err, ErrNoCharges) {
		t.Fatalf("autofill err=%v", out.Err)
	}
}

func TestNoRerollsModifierBlocksActions(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)
	s.Modifier = modifiers.NoRerolls

	if _, out := e.Apply(s, Reroll{}); !errors.Is(out.Err, ErrRerollDisabled) {
		t.Fatalf("reroll err=%v", out.Err)
	}
	if _, out := e.Apply(s, AutoFill{}); !errors.Is(out.Err, ErrRerollDisabled) {
		t.Fatalf("autofill err=%v", out.Err)
	}
}

func TestAutoFill(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "ERANC")

	s, out := e.Apply(s, AutoFill{})
	if out.Err != nil {
		t.Fatal(out.Err)
	}
	if StageWord(s) != "CRANE" || s.RerollsLeft != 2 || s.Heat != 13 {
		t.Fatalf("stage=%q rerolls=%d heat=%v", StageWord(s), s.RerollsLeft, s.Heat)
	}

	// Once CRANE is used the next anagram is picked.
	s, _ = e.Apply(s, Submit{})
	s = withRack(s, "ERANC")
	s, _ = e.Apply(s, AutoFill{})
	if StageWord(s) != "NACRE" {
		t.Fatalf("second fill = %q", StageWord(s))
	}

	s = withRack(s, "QQQQQ")
	s.RerollsLeft = StartingRerolls
	if _, out := e.Apply(s, AutoFill{}); !errors.Is(out.Err, ErrNoAnagram) {
		t.Fatalf("err=%v", out.Err)
	}
}

func TestShuffleKeepsLetters(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeBlitz), "CRANE")
	s, _ = e.Apply(s, StageLetter{Letter: "C"})
	s.RackAge = 3 * time.Second

	s, _ = e.Apply(s, Shuffle{})
	if words.Signature(RackWord(s.Dice)) != "ACENR" {
		t.Fatalf("letters changed: %q", RackWord(s.Dice))
	}
	if len(s.StageIDs) != 0 || s.RackAge != 0 || s.RerollsLeft != StartingRerolls {
		t.Fatalf("stage=%v age=%v rerolls=%d", s.StageIDs, s.RackAge, s.RerollsLeft)
	}
}

func TestFinishResult(t *testing.T) {
	e := testEngine(t)
	s := withRack(mustStart(t, e, ModeDaily), "CRANE")
	s.Modifier = modifiers.SurgeStart
	s.Heat = 45

	s = stage(t, e, s, "crane")
	s, _ = e.Apply(s, Submit{})
	s = withRack(s, "TRACE")
	s = stage(t, e, s, "trace")
	s, _ = e.Apply(s, Submit{})
	s, _ = e.Apply(s, Tick{Elapsed: 10 * time.Second})

	s, out := e.Apply(s, Finish{})
	res := out.Result
	if res == nil || s.Status != StatusFinished {
		t.Fatalf("status=%s", s.Status)
	}
	if res.WordsPlayed != 2 || len(res.HeatTrace) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.MaxHeat != res.HeatTrace[1] {
		t.Fatalf("max heat %v, trace %v", res.MaxHeat, res.HeatTrace)
	}
	if got := strings.Join(res.TopChain, ","); got != "CRANE,TRACE" {
		t.Fatalf("top chain = %q", got)
	}
	if res.Medal != scoring.MedalFor(res.Score) || res.DayNumber != s.DayNumber {
		t.Fatalf("medal=%s day=%d", res.Medal, res.DayNumber)
	}

	if _, out := e.Apply(s, Finish{}); !errors.Is(out.Err, ErrNotPlaying) {
		t.Fatalf("second finish err=%v", out.Err)
	}
}

func TestFinishWithoutWordsUsesStartHeat(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)
	s.Modifier = modifiers.SurgeStart
	s, _ = e.Apply(s, Tick{Elapsed: 5 * time.Second})

	_, out := e.Apply(s, Finish{})
	if out.Result.MaxHeat != 45 || out.Result.WordsPlayed != 0 || len(out.Result.TopChain) != 0 {
		t.Fatalf("result = %+v", out.Result)
	}
}

func TestMenuDiscardsRun(t *testing.T) {
	e := testEngine(t)
	s := mustStart(t, e, ModeBlitz)
	s, out := e.Apply(s, Menu{})
	if s.Status != StatusMenu || out.Result != nil || s.Score != 0 {
		t.Fatalf("status=%s", s.Status)
	}
	if _, out := e.Apply(s, Submit{}); !errors.Is(out.Err, ErrNotPlaying) {
		t.Fatalf("submit from menu err=%v", out.Err)
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode("daily"); !ok || m != ModeDaily {
		t.Fatal("daily")
	}
	if _, ok := ParseMode("zen"); ok {
		t.Fatal("zen accepted")
	}
}
