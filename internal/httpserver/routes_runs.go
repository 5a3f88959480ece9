// internal/httpserver/routes_runs.go
//
// Hosted runs. Every mutation goes through store.Update so one run only ever
// sees one action at a time.
//   - POST   /runs               → start a run {mode}
//   - GET    /runs/{id}          → current snapshot
//   - POST   /runs/{id}/tick     → advance the clock {elapsedMs}
//   - POST   /runs/{id}/actions  → apply a player action {type, index, letter, mode}
//   - GET    /runs/{id}/share    → share text (finished runs only)
//   - DELETE /runs/{id}          → abandon (no stats recorded)
//
// Rejected actions answer 422 with {error, message, run}.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/heatstack/internal/daily"
	"github.com/robalobadob/heatstack/internal/game"
	"github.com/robalobadob/heatstack/internal/heat"
	"github.com/robalobadob/heatstack/internal/modifiers"
	"github.com/robalobadob/heatstack/internal/share"
	"github.com/robalobadob/heatstack/internal/store"
)

// mountRuns registers all /runs routes.
func (s *Server) mountRuns(r chi.Router) {
	r.Route("/runs", func(r chi.Router) {
		r.With(s.limiter.middleware).Post("/", s.handleCreateRun)
		r.Get("/{id}", s.handleGetRun)
		r.With(s.limiter.middleware).Post("/{id}/tick", s.handleTick)
		r.With(s.limiter.middleware).Post("/{id}/actions", s.handleAction)
		r.Get("/{id}/share", s.handleShare)
		r.Delete("/{id}", s.handleDeleteRun)
	})
}

// ----------------------------- views ---------------------------------------

// runView is the wire shape of a run. Durations are milliseconds.
type runView struct {
	ID          string             `json:"id"`
	Mode        game.Mode          `json:"mode"`
	Status      game.Status        `json:"status"`
	Seed        int64              `json:"seed"`
	DayNumber   int                `json:"dayNumber,omitempty"`
	Modifier    modifiers.Modifier `json:"modifier"`
	Dice        []game.Die         `json:"dice"`
	StageIDs    []string           `json:"stageIds"`
	StageWord   string             `json:"stageWord"`
	RerollsLeft int                `json:"rerollsLeft"`
	TimeLeftMs  int64              `json:"timeLeftMs"`
	RackAgeMs   int64              `json:"rackAgeMs"`
	Score       int                `json:"score"`
	Combo       int                `json:"combo"`
	MaxCombo    int                `json:"maxCombo"`
	Heat        float64            `json:"heat"`
	HeatTier    string             `json:"heatTier"`
	Multiplier  float64            `json:"multiplier"`
	LastWord    string             `json:"lastWord,omitempty"`
	History     []game.WordRecord  `json:"history"`
	Anchors     *[2]string         `json:"anchors,omitempty"`
	Result      *game.RunResult    `json:"result,omitempty"`
	ShareText   string             `json:"shareText,omitempty"`
	Token       string             `json:"token,omitempty"`
}

func viewOf(run store.Run) runView {
	st := run.State
	v := runView{
		ID:          run.ID,
		Mode:        st.Mode,
		Status:      st.Status,
		Seed:        st.Seed,
		DayNumber:   st.DayNumber,
		Modifier:    modifiers.ByID(st.Modifier),
		Dice:        st.Dice,
		StageIDs:    st.StageIDs,
		StageWord:   game.StageWord(st),
		RerollsLeft: st.RerollsLeft,
		TimeLeftMs:  st.TimeLeft.Milliseconds(),
		RackAgeMs:   st.RackAge.Milliseconds(),
		Score:       st.Score,
		Combo:       st.Combo,
		MaxCombo:    st.MaxCombo,
		Heat:        st.Heat,
		HeatTier:    heat.Tier(st.Heat),
		Multiplier:  heat.Multiplier(st.Heat),
		LastWord:    st.LastWord,
		History:     st.History,
		Result:      st.Result,
	}
	if v.StageIDs == nil {
		v.StageIDs = []string{}
	}
	if v.History == nil {
		v.History = []game.WordRecord{}
	}
	if st.HasAnchors {
		a := st.Anchors
		v.Anchors = &a
	}
	if st.Result != nil {
		v.ShareText = share.Text(*st.Result)
		v.Token = share.Token(*st.Result)
	}
	return v
}

// ----------------------------- actions -------------------------------------

// actionReq is the body of /runs/{id}/actions and the payload of ws ACTION.
type actionReq struct {
	Type   string `json:"type"`
	Index  int    `json:"index"`
	Letter string `json:"letter"`
	Mode   string `json:"mode"`
}

var errBadAction = errors.New("unknown action type")

// parseAction maps a wire action onto the reducer's actions. Start is not
// accepted here; it needs a daily gate and goes through startAction.
func parseAction(req actionReq) (game.Action, error) {
	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case "toggle":
		return game.Toggle{Index: req.Index}, nil
	case "stage", "letter":
		return game.StageLetter{Letter: req.Letter}, nil
	case "pop", "backspace":
		return game.Pop{}, nil
	case "clear":
		return game.ClearStage{}, nil
	case "shuffle":
		return game.Shuffle{}, nil
	case "reroll":
		return game.Reroll{}, nil
	case "autofill", "auto_fill":
		return game.AutoFill{}, nil
	case "submit":
		return game.Submit{}, nil
	case "finish":
		return game.Finish{}, nil
	case "menu":
		return game.Menu{}, nil
	}
	return nil, errBadAction
}

// errCode is the machine-readable code for a reducer rejection.
func errCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotLoaded):
		return "not_loaded"
	case errors.Is(err, game.ErrNotPlaying):
		return "not_playing"
	case errors.Is(err, game.ErrRunActive):
		return "run_active"
	case errors.Is(err, game.ErrDailyLocked):
		return "daily_locked"
	case errors.Is(err, game.ErrIncomplete):
		return "incomplete"
	case errors.Is(err, game.ErrInvalidWord):
		return "invalid_word"
	case errors.Is(err, game.ErrDuplicateWord):
		return "duplicate_word"
	case errors.Is(err, game.ErrNoCharges):
		return "no_charges"
	case errors.Is(err, game.ErrRerollDisabled):
		return "reroll_disabled"
	case errors.Is(err, game.ErrNoAnagram):
		return "no_anagram"
	}
	return "unknown_action"
}

// rejection carries a reducer error out of store.Update.
type rejection struct{ err error }

func (r rejection) Error() string { return r.err.Error() }
func (r rejection) Unwrap() error { return r.err }

// startAction builds a Start with the caller's daily gate.
func (s *Server) startAction(ctx context.Context, playerID string, mode game.Mode) game.Start {
	return game.Start{
		Mode: mode,
		Gate: s.daily.Gate(ctx, playerID, s.stats.Played(ctx, playerID)),
	}
}

// applyToRun applies a to the run if playerID owns it. A reducer rejection is
// returned as an error wrapping the game sentinel, alongside the unchanged run.
func (s *Server) applyToRun(ctx context.Context, playerID, runID string, a game.Action) (store.Run, error) {
	var out game.Outcome
	run, err := s.store.Update(ctx, runID, func(r *store.Run) error {
		if r.PlayerID != playerID {
			return store.ErrForbidden
		}
		next, o := s.engine.Apply(r.State, a)
		if o.Err != nil {
			return rejection{o.Err}
		}
		out = o
		r.State = next
		return nil
	})
	if err != nil {
		return run, err
	}
	if out.Fallback {
		log.Debug().Str("run", runID).Msg("rack fallback")
	}
	if out.Result != nil {
		s.onFinished(ctx, playerID, runID, *out.Result)
	}
	return run, nil
}

// onFinished records stats and the daily result. It runs detached from the
// request so a client hang-up does not lose the record.
func (s *Server) onFinished(ctx context.Context, playerID, runID string, res game.RunResult) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.stats.RecordRun(ctx, playerID, res); err != nil {
		log.Error().Err(err).Str("player", playerID).Msg("record stats")
	}
	if res.Mode == game.ModeDaily {
		if err := s.daily.InsertResult(ctx, daily.Result{
			PlayerID:    playerID,
			Date:        daily.SeedKey(res.Seed),
			Seed:        res.Seed,
			Score:       res.Score,
			WordsPlayed: res.WordsPlayed,
			MaxCombo:    res.MaxCombo,
			Medal:       string(res.Medal),
			Token:       share.Token(res),
		}); err != nil {
			log.Error().Err(err).Str("player", playerID).Msg("insert daily result")
		}
	}
	log.Info().
		Str("run", runID).
		Str("player", playerID).
		Str("mode", string(res.Mode)).
		Int("score", res.Score).
		Int("words", res.WordsPlayed).
		Str("medal", string(res.Medal)).
		Msg("run finished")
}

// writeRunError maps store and reducer errors onto HTTP responses.
func writeRunError(w http.ResponseWriter, run store.Run, err error) {
	var rej rejection
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "run_not_found", "")
	case errors.Is(err, store.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "")
	case errors.As(err, &rej):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   errCode(rej.err),
			Message: game.Message(rej.err),
			Run:     viewOf(run),
		})
	default:
		log.Error().Err(err).Msg("run update")
		writeError(w, http.StatusInternalServerError, "server_error", "")
	}
}

// ----------------------------- handlers ------------------------------------

type createRunReq struct {
	Mode string `json:"mode"`
}

// handleCreateRun starts a run and only stores it once the start succeeded.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	var body createRunReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	mode, ok := game.ParseMode(strings.ToLower(strings.TrimSpace(body.Mode)))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_mode", "mode must be daily or blitz")
		return
	}
	st, out := s.engine.Apply(game.NewState(), s.startAction(r.Context(), pid, mode))
	if out.Err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errCode(out.Err), Message: game.Message(out.Err)})
		return
	}
	run, err := s.store.Create(r.Context(), pid, st)
	if err != nil {
		log.Error().Err(err).Msg("create run")
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	log.Info().Str("run", run.ID).Str("player", pid).Str("mode", string(mode)).Int64("seed", st.Seed).Msg("run created")
	writeJSON(w, http.StatusCreated, viewOf(run))
}

// ownedRun loads the run and checks the caller owns it.
func (s *Server) ownedRun(w http.ResponseWriter, r *http.Request) (store.Run, string, bool) {
	pid := s.playerID(w, r)
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && run.PlayerID != pid {
		err = store.ErrForbidden
	}
	if err != nil {
		writeRunError(w, run, err)
		return store.Run{}, pid, false
	}
	return run, pid, true
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, _, ok := s.ownedRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(run))
}

type tickReq struct {
	ElapsedMs int64 `json:"elapsedMs"`
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var body tickReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ElapsedMs < 0 {
		writeError(w, http.StatusBadRequest, "invalid_tick", "")
		return
	}
	pid := s.playerID(w, r)
	run, err := s.applyToRun(r.Context(), pid, chi.URLParam(r, "id"),
		game.Tick{Elapsed: time.Duration(body.ElapsedMs) * time.Millisecond})
	if err != nil {
		writeRunError(w, run, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(run))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var body actionReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	pid := s.playerID(w, r)
	a, err := s.actionFor(r.Context(), pid, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_action", err.Error())
		return
	}
	run, err := s.applyToRun(r.Context(), pid, chi.URLParam(r, "id"), a)
	if err != nil {
		writeRunError(w, run, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(run))
}

// actionFor resolves a wire action, including "start" which restarts a run
// from the menu or a finished state.
func (s *Server) actionFor(ctx context.Context, playerID string, req actionReq) (game.Action, error) {
	if strings.EqualFold(strings.TrimSpace(req.Type), "start") {
		mode, ok := game.ParseMode(strings.ToLower(req.Mode))
		if !ok {
			return nil, errors.New("mode must be daily or blitz")
		}
		return s.startAction(ctx, playerID, mode), nil
	}
	return parseAction(req)
}

// handleShare answers the share text as plain text.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	run, _, ok := s.ownedRun(w, r)
	if !ok {
		return
	}
	if run.State.Result == nil {
		writeError(w, http.StatusConflict, "not_finished", "Run has not finished")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(share.Text(*run.State.Result)))
}

// handleDeleteRun abandons a run. Nothing is recorded.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	run, _, ok := s.ownedRun(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), run.ID); err != nil {
		writeRunError(w, run, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
