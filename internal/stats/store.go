// internal/stats/store.go
//
// Stats persistence.
//   - SQLStore keeps one JSON document per player in player_stats.
//   - MemoryStore is the process-local fallback used by tests and the
//     headless simulator.
//   - Recorder folds finished runs into whichever Store it wraps.

package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/heatstack/internal/daily"
	"github.com/robalobadob/heatstack/internal/game"
)

type Store interface {
	// Load returns zeroed stats for an unknown player.
	Load(ctx context.Context, playerID string) (Stats, error)
	Save(ctx context.Context, playerID string, s Stats) error
}

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Load(ctx context.Context, playerID string) (Stats, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM player_stats WHERE player_id=?", playerID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return New(), nil
	}
	if err != nil {
		return Stats{}, fmt.Errorf("load stats: %w", err)
	}
	st := New()
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return st, nil
}

func (s *SQLStore) Save(ctx context.Context, playerID string, st Stats) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO player_stats(player_id, data, updated_at) VALUES(?,?,?)
ON CONFLICT(player_id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		playerID, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mu    sync.RWMutex
	stats map[string]Stats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stats: make(map[string]Stats)}
}

func (m *MemoryStore) Load(ctx context.Context, playerID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.stats[playerID]; ok {
		return st, nil
	}
	return New(), nil
}

func (m *MemoryStore) Save(ctx context.Context, playerID string, st Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[playerID] = st
	return nil
}

// Recorder applies finished runs to stored stats. Recording is
// read-modify-write, so it is serialized.
type Recorder struct {
	mu    sync.Mutex
	store Store
	clock daily.Clock
	zone  *time.Location
}

func NewRecorder(store Store, clock daily.Clock, zone *time.Location) *Recorder {
	if clock == nil {
		clock = daily.SystemClock{}
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Recorder{store: store, clock: clock, zone: zone}
}

// RecordRun folds r into the player's stats and returns the updated value.
func (rc *Recorder) RecordRun(ctx context.Context, playerID string, r game.RunResult) (Stats, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	st, err := rc.store.Load(ctx, playerID)
	if err != nil {
		return Stats{}, err
	}
	st = st.Record(r, daily.DateKey(rc.clock.Now(), rc.zone))
	if err := rc.store.Save(ctx, playerID, st); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// Played returns a predicate reporting whether the player's stats already
// hold a finished daily for a seed. It is meant for daily.Store.Gate.
func (rc *Recorder) Played(ctx context.Context, playerID string) func(seed int64) bool {
	return func(seed int64) bool {
		st, err := rc.store.Load(ctx, playerID)
		if err != nil {
			return false
		}
		return !st.CanPlayDaily(seed, daily.DateKey(rc.clock.Now(), rc.zone))
	}
}

// Load exposes the underlying store for read-only callers.
func (rc *Recorder) Load(ctx context.Context, playerID string) (Stats, error) {
	return rc.store.Load(ctx, playerID)
}
