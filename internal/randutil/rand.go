// Package randutil builds the deterministic random streams used across
// the server. Every randomised component takes a *rand.Rand constructed
// here, so a single int64 seed reproduces its behaviour exactly.
package randutil

import rand "math/rand/v2"

// New returns a PCG generator derived from one int64 seed. rand/v2
// wants two 64-bit words, so the seed is pushed through a splitmix64
// round for each, chained so nearby seeds diverge immediately.
func New(seed int64) *rand.Rand {
	hi := splitmix(uint64(seed))
	return rand.New(rand.NewPCG(hi, splitmix(hi)))
}

// splitmix is one round of Vigna's splitmix64.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ x>>30) * 0xbf58476d1ce4e5b9
	x = (x ^ x>>27) * 0x94d049bb133111eb
	return x ^ x>>31
}
