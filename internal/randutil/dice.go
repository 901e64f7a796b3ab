package randutil

import (
	rand "math/rand/v2"
	"time"
)

// RollDie returns a uniform die pip in [1, 6].
func RollDie(r *rand.Rand) int {
	return r.IntN(6) + 1
}

// RollPair rolls two dice.
func RollPair(r *rand.Rand) (int, int) {
	return RollDie(r), RollDie(r)
}

// CoinFlip returns true with probability one half.
func CoinFlip(r *rand.Rand) bool {
	return r.IntN(2) == 0
}

// Jitter returns a uniform duration in [min, max]. If max is not greater
// than min it returns min.
func Jitter(r *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.Int64N(int64(max-min)+1))
}
