package gnubg

import (
	"sort"

	"github.com/lox/gammond/internal/board"
)

// reduceTurn collapses runs of steps that share a source/destination into
// single from/final-to segments: 12/17 17/21 becomes 12/21, while two
// independent 12/17 steps stay separate. The engine prints either form,
// so comparisons happen on the reduced shape.
func reduceTurn(turn []board.Step) []board.Step {
	if len(turn) == 0 {
		return nil
	}

	moves := append([]board.Step{}, turn...)
	var reduced []board.Step

	for len(moves) > 0 {
		destinations := make(map[int]bool, len(moves))
		for _, m := range moves {
			destinations[m.To] = true
		}

		headIdx := -1
		for i, m := range moves {
			if !destinations[m.From] {
				headIdx = i
				break
			}
		}
		if headIdx < 0 {
			// Cyclic remainder; keep the steps as they are.
			reduced = append(reduced, moves...)
			break
		}

		head := moves[headIdx]
		moves = append(moves[:headIdx], moves[headIdx+1:]...)
		chainFrom, chainTo := head.From, head.To

		for {
			nextIdx := -1
			for i, m := range moves {
				if m.From == chainTo {
					nextIdx = i
					break
				}
			}
			if nextIdx < 0 {
				break
			}
			chainTo = moves[nextIdx].To
			moves = append(moves[:nextIdx], moves[nextIdx+1:]...)
		}

		reduced = append(reduced, board.Step{From: chainFrom, To: chainTo})
	}

	return reduced
}

// sortSteps returns a copy ordered by (from, to) for order-insensitive
// comparison.
func sortSteps(steps []board.Step) []board.Step {
	out := append([]board.Step{}, steps...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func stepsEqual(a, b []board.Step) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// reconcile matches the parsed engine steps against the enumerated legal
// turns and returns the canonical enumerated sequence. Direct sorted
// equality is tried first, then equality of the reduced forms.
func reconcile(parsed []board.Step, turns []board.Turn) (board.Turn, bool) {
	parsedSorted := sortSteps(parsed)
	parsedReduced := sortSteps(reduceTurn(parsed))

	for _, option := range turns {
		if stepsEqual(sortSteps(option), parsedSorted) {
			return option, true
		}
		if stepsEqual(sortSteps(reduceTurn(option)), parsedReduced) {
			return option, true
		}
	}
	return nil, false
}
