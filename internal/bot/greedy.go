package bot

import (
	rand "math/rand/v2"

	"github.com/lox/gammond/internal/board"
)

// GreedyStrategy scores each candidate turn one move ahead and plays the
// best: hitting blots first, then whatever races its own checkers furthest.
// Ties keep the earliest candidate so play stays deterministic for a fixed
// dice sequence.
type GreedyStrategy struct{}

func (s *GreedyStrategy) Name() string { return "greedy" }

// A hit outweighs any pip gain: a single turn moves at most 24 pips, so
// weighting a hit at 25 per captured checker dominates.
const hitWeight = 25

func (s *GreedyStrategy) Choose(_ *rand.Rand, b board.Board, sign int, turns []board.Turn) board.Turn {
	best := turns[0]
	bestScore := s.score(b, sign, turns[0])
	for _, turn := range turns[1:] {
		if score := s.score(b, sign, turn); score > bestScore {
			best = turn
			bestScore = score
		}
	}
	return best
}

func (s *GreedyStrategy) score(b board.Board, sign int, turn board.Turn) int {
	before := board.PipCount(b, sign)
	oppBarBefore := b[board.Bar(-sign)] * -sign

	after := b
	for _, step := range turn {
		after = board.ApplyStep(after, step, sign)
	}

	hits := after[board.Bar(-sign)]*-sign - oppBarBefore
	return hits*hitWeight + before - board.PipCount(after, sign)
}
