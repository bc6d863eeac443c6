package disaster

import "math/rand"

// counterRNG is a deterministic, seeded counter-mode source: each draw
// derives a fresh math/rand source from (seed, counter) and then advances
// the counter, so a given seed always yields the same sequence of draws.
// The counter is not synchronised; a counterRNG belongs to one goroutine.
type counterRNG struct {
	seed    int64
	counter int64
}

func newCounterRNG(seed int64) *counterRNG {
	return &counterRNG{seed: seed}
}

// NewRNG constructs the seeded counter-mode source that Schedule draws
// from when scheduling a new disaster for a world.
func NewRNG(worldSeed int64) *counterRNG {
	return newCounterRNG(worldSeed)
}

// Float64 returns a deterministic value in [0,1) for the current counter,
// then advances it.
func (r *counterRNG) Float64() float64 {
	src := rand.NewSource(r.seed ^ int64(uint64(r.counter)*0x9E3779B97F4A7C15))
	r.counter++
	return rand.New(src).Float64()
}
