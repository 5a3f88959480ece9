// internal/store/memory.go
//
// In-memory run store.
//
// Characteristics:
//   - Runs are keyed by a random UUID and owned by one player.
//   - The map is guarded by an RWMutex; each run also carries its own mutex
//     so Update calls for the same run are serialized while different runs
//     proceed independently.
//   - State is lost when the process restarts.
//   - Idle runs (finished, abandoned or forgotten) are dropped by Sweep; the
//     HTTP host calls it on a timer.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/heatstack/internal/game"
)

var (
	ErrNotFound  = errors.New("run not found")
	ErrForbidden = errors.New("run belongs to another player")
)

// Run is one hosted run.
type Run struct {
	ID        string
	PlayerID  string
	State     game.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the persistence interface for hosted runs.
type Store interface {
	// Create registers a new run for playerID holding s.
	Create(ctx context.Context, playerID string, s game.State) (Run, error)

	// Get returns a snapshot of the run.
	Get(ctx context.Context, id string) (Run, error)

	// Update runs fn with exclusive access to the run. The run is saved only
	// when fn returns nil.
	Update(ctx context.Context, id string, fn func(r *Run) error) (Run, error)

	Delete(ctx context.Context, id string) error

	// Sweep drops runs not updated since before and reports how many went.
	Sweep(ctx context.Context, before time.Time) (int, error)
}

type entry struct {
	mu  sync.Mutex
	run Run
}

type memory struct {
	mu   sync.RWMutex
	runs map[string]*entry
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{runs: make(map[string]*entry)}
}

func (m *memory) Create(ctx context.Context, playerID string, s game.State) (Run, error) {
	now := time.Now().UTC()
	r := Run{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		State:     s,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = &entry{run: r}
	return r, nil
}

func (m *memory) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.runs[id]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Get(ctx context.Context, id string) (Run, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Run{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run, nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(r *Run) error) (Run, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Run{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	next := e.run
	if err := fn(&next); err != nil {
		return e.run, err
	}
	next.UpdatedAt = time.Now().UTC()
	e.run = next
	return next, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return ErrNotFound
	}
	delete(m.runs, id)
	return nil
}

func (m *memory) Sweep(ctx context.Context, before time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.runs {
		e.mu.Lock()
		idle := e.run.UpdatedAt.Before(before)
		e.mu.Unlock()
		if idle {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}
