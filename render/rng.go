package render

import "math/rand/v2"

// rng wraps a non-cryptographic source. Noise placement needs no secrecy.
type rng struct {
	r *rand.Rand
}

func newRNG() *rng {
	return &rng{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// intn returns a uniform integer in [lo,hi]. Reversed bounds are swapped.
func (r *rng) intn(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.r.IntN(hi-lo+1)
}

func (r *rng) float() float64 {
	return r.r.Float64()
}

// jitter returns a value in [-0.1,0.1).
func (r *rng) jitter() float64 {
	return r.r.Float64()*0.2 - 0.1
}
