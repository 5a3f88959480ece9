// internal/rng/rng.go
//
// Deterministic pseudo-random generator used for rack generation.
//
// The generator is mulberry32: a 32-bit state advanced by a fixed additive
// constant and mixed by two multiply-xorshift rounds. The exact constants and
// shift amounts are part of the contract: a given seed must produce the same
// sequence on every host, because shared daily results are reproduced from it.
//
// Mulberry32 is a plain value. Copying it forks the stream, which lets the run
// orchestrator keep its RNG inside an immutable-by-convention state struct.
package rng

// Source is the read side of a deterministic generator.
type Source interface {
	// Float64 returns the next value in [0,1).
	Float64() float64
	// Intn returns floor(Float64()*n); n <= 0 yields 0 without advancing.
	Intn(n int) int
}

// Mulberry32 is a seeded 32-bit generator.
type Mulberry32 struct {
	state uint32
}

// New seeds a generator. Seeds wider than 32 bits (wall-clock milliseconds)
// are truncated to their low 32 bits.
func New(seed int64) Mulberry32 {
	return Mulberry32{state: uint32(seed)}
}

// Float64 advances the state and returns a value in [0,1).
func (m *Mulberry32) Float64() float64 {
	m.state += 0x6d2b79f5
	s := m.state
	t := (s ^ (s >> 15)) * (s | 1)
	t = (t + (t^(t>>7))*(t|61)) ^ t
	return float64(t^(t>>14)) / 4294967296.0
}

func (m *Mulberry32) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(m.Float64() * float64(n))
}

// State exposes the raw 32-bit state (snapshots, debugging).
func (m Mulberry32) State() uint32 { return m.state }
