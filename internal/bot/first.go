package bot

import (
	rand "math/rand/v2"

	"github.com/lox/gammond/internal/board"
)

// FirstStrategy always plays the first enumerated turn. Deterministic for a
// given dice sequence, which makes it the baseline opponent in tests.
type FirstStrategy struct{}

func (s *FirstStrategy) Name() string { return "first" }

func (s *FirstStrategy) Choose(_ *rand.Rand, _ board.Board, _ int, turns []board.Turn) board.Turn {
	return turns[0]
}
