// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge.
//   - GET /daily/today       → seed, date, day number, modifier, time to reset,
//                              and whether the caller is locked out
//   - GET /daily/leaderboard → top results for today (or ?date=YYYY-MM-DD)
//
// The run itself is played through /runs with mode "daily"; starting one
// locks the day for the caller.

package httpserver

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/heatstack/internal/daily"
	"github.com/robalobadob/heatstack/internal/modifiers"
)

var dateParam = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/today", s.handleDailyToday)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// todayRes is returned by /daily/today.
type todayRes struct {
	Seed        int64              `json:"seed"`
	Date        string             `json:"date"`
	DayNumber   int                `json:"dayNumber"`
	Modifier    modifiers.Modifier `json:"modifier"`
	MsUntilNext int64              `json:"msUntilNext"`
	Locked      bool               `json:"locked"`
}

func (s *Server) handleDailyToday(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	now := s.engine.Clock.Now()
	seed := daily.Seed(now, s.engine.Zone)
	gate := s.daily.Gate(r.Context(), pid, s.stats.Played(r.Context(), pid))
	writeJSON(w, http.StatusOK, todayRes{
		Seed:        seed,
		Date:        daily.SeedKey(seed),
		DayNumber:   daily.DayNumberForSeed(seed),
		Modifier:    modifiers.ForSeed(seed),
		MsUntilNext: daily.UntilNextDay(now, s.engine.Zone).Milliseconds(),
		Locked:      gate.Locked(seed),
	})
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.engine.Clock.Now(), s.engine.Zone)
	} else if !dateParam.MatchString(date) {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	rows, err := s.daily.Leaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	if rows == nil {
		rows = []daily.LBRow{}
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
