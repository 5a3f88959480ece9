package daily

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
)

// Result is one finished daily run as kept for the leaderboard.
type Result struct {
	PlayerID    string `json:"playerId"`
	Date        string `json:"date"`
	Seed        int64  `json:"seed"`
	Score       int    `json:"score"`
	WordsPlayed int    `json:"wordsPlayed"`
	MaxCombo    int    `json:"maxCombo"`
	Medal       string `json:"medal"`
	Token       string `json:"token"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Locked reports whether the player already started the daily for seed.
func (s *Store) Locked(ctx context.Context, playerID string, seed int64) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_locks WHERE player_id=? AND seed=?",
		playerID, seed,
	).Scan(&cnt)
	return cnt > 0, err
}

// Lock records that the player started the daily for seed. Repeats are ignored.
func (s *Store) Lock(ctx context.Context, playerID string, seed int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_locks(player_id, seed, date, locked_at)
VALUES(?,?,?,?)`, playerID, seed, SeedKey(seed), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(player_id, date, seed, score, words_played, max_combo, medal, token)
VALUES(?,?,?,?,?,?,?,?)`,
		r.PlayerID, r.Date, r.Seed, r.Score, r.WordsPlayed, r.MaxCombo, r.Medal, r.Token,
	)
	return err
}

type LBRow struct {
	PlayerID    string `json:"playerId"`
	Score       int    `json:"score"`
	WordsPlayed int    `json:"wordsPlayed"`
	MaxCombo    int    `json:"maxCombo"`
	Medal       string `json:"medal"`
	Token       string `json:"token"`
}

func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, score, words_played, max_combo, medal, token
FROM daily_results
WHERE date=?
ORDER BY score DESC, max_combo DESC, created_at ASC
LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.PlayerID, &r.Score, &r.WordsPlayed, &r.MaxCombo, &r.Medal, &r.Token); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Gate binds the store to one player and request context. It satisfies the
// run orchestrator's daily gate. played, when non-nil, is consulted as well
// (the player's stats keep their own list of finished daily seeds).
type Gate struct {
	ctx      context.Context
	store    *Store
	playerID string
	played   func(seed int64) bool
}

func (s *Store) Gate(ctx context.Context, playerID string, played func(seed int64) bool) *Gate {
	return &Gate{ctx: ctx, store: s, playerID: playerID, played: played}
}

// Locked fails closed: a lookup error counts as locked.
func (g *Gate) Locked(seed int64) bool {
	if g.played != nil && g.played(seed) {
		return true
	}
	locked, err := g.store.Locked(g.ctx, g.playerID, seed)
	if err != nil {
		log.Warn().Err(err).Str("player", g.playerID).Int64("seed", seed).Msg("daily lock lookup")
		return true
	}
	return locked
}

func (g *Gate) Lock(seed int64) {
	if err := g.store.Lock(g.ctx, g.playerID, seed); err != nil {
		log.Warn().Err(err).Str("player", g.playerID).Int64("seed", seed).Msg("daily lock write")
	}
}
