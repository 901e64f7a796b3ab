// Package bot provides scripted turn-selection strategies over the rule
// engine's enumerated turns. They carry no engine process and no game
// knowledge beyond the position in front of them, which makes them suitable
// for self-play simulation and as deterministic opponents in tests. The
// production opponent is the gnubg adapter; these never see live games.
package bot

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/gammond/internal/board"
)

// Strategy picks one turn from the legal turns for a position. Callers
// guarantee turns is non-empty; the dice and mover are implicit in how
// the turns were enumerated.
type Strategy interface {
	Name() string
	Choose(rng *rand.Rand, b board.Board, sign int, turns []board.Turn) board.Turn
}

// Names lists the built-in strategies in the order they are documented.
func Names() []string {
	return []string{"random", "first", "greedy"}
}

// New resolves a strategy by name.
func New(name string) (Strategy, error) {
	switch name {
	case "random":
		return &RandomStrategy{}, nil
	case "first":
		return &FirstStrategy{}, nil
	case "greedy":
		return &GreedyStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
