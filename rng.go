package zmachine

import (
	"math/rand"
	"time"
)

// RNG is the story's random number generator. It is either random (seeded
// from the clock) or predictable (seeded explicitly for replay).
type RNG struct {
	rand        *rand.Rand
	seed        int64
	predictable bool
}

func NewRNG() *RNG {
	r := &RNG{}
	r.EnterRandomMode()
	return r
}

// EnterRandomMode reseeds from the clock.
func (r *RNG) EnterRandomMode() {
	seed := time.Now().UnixNano()
	if seed == 0 {
		seed = 1
	}
	r.seed = seed
	r.rand = rand.New(rand.NewSource(seed))
	r.predictable = false
}

// EnterPredictableMode reseeds deterministically.
func (r *RNG) EnterPredictableMode(seed int64) {
	r.seed = seed
	r.rand = rand.New(rand.NewSource(seed))
	r.predictable = true
}

func (r *RNG) Predictable() bool {
	return r.predictable
}

func (r *RNG) Seed() int64 {
	return r.seed
}

// RandInt follows the random opcode: for a positive range returns a value
// in [1, n]; 0 reseeds randomly and a negative range seeds predictably with
// |n|, both returning 0.
func (r *RNG) RandInt(n int) int {
	switch {
	case n > 0:
		return r.rand.Intn(n) + 1
	case n < 0:
		r.EnterPredictableMode(int64(-n))
	default:
		r.EnterRandomMode()
	}
	return 0
}
