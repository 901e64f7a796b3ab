package bot

import (
	rand "math/rand/v2"

	"github.com/lox/gammond/internal/board"
)

// RandomStrategy plays a uniformly random legal turn.
type RandomStrategy struct{}

func (s *RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) Choose(rng *rand.Rand, _ board.Board, _ int, turns []board.Turn) board.Turn {
	return turns[rng.IntN(len(turns))]
}
