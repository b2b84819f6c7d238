package lumed

import "math/rand/v2"

// Rand is the random bit source used by the twinkle effects.
type Rand interface {
	// Bits returns a uniformly random integer of n bits, n <= 32.
	Bits(n int) uint32
}

type pcgRand struct {
	r *rand.Rand
}

// NewRand returns a Rand seeded with seed. Two Rands with the same seed
// produce the same sequence.
func NewRand(seed uint64) Rand {
	return pcgRand{rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r pcgRand) Bits(n int) uint32 {
	return uint32(r.r.Uint64() >> (64 - n))
}
