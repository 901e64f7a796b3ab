// Package gnubg asks an external GNU Backgammon compatible engine to pick
// the bot's move. The adapter serializes the position into the engine's
// identifier formats, drives a one-shot child process through a fixed
// command script, parses the hinted move back into atomic steps, and
// reconciles those steps against the rule engine's own enumeration so
// that only canonical legal turns ever reach a session.
package gnubg

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/board"
)

// ErrDesync is returned when the engine's move cannot be matched to any
// enumerated legal turn. Callers treat the bot turn as unplayable.
var ErrDesync = errors.New("gnubg: engine move does not match any legal turn")

// ErrNoHint is returned when the engine output carries no usable hint.
var ErrNoHint = errors.New("gnubg: no hint found in engine output")

// Adapter turns positions into canonical bot turns. It is stateless and
// safe for concurrent use.
type Adapter struct {
	runner Runner
	logger *log.Logger
}

// New creates an adapter around the given engine runner.
func New(runner Runner, logger *log.Logger) *Adapter {
	return &Adapter{
		runner: runner,
		logger: logger.WithPrefix("gnubg"),
	}
}

// ChooseTurn returns the engine's preferred turn for the mover as one of
// the sequences EnumerateTurns produces for the same inputs. A nil turn
// with nil error means the position has no legal moves at all.
func (a *Adapter) ChooseTurn(ctx context.Context, b board.Board, dice []int, sign int) (board.Turn, error) {
	if len(dice) == 0 {
		return nil, nil
	}

	turns := board.EnumerateTurns(b, dice, sign)
	if !board.MovesAvailable(turns) {
		return nil, nil
	}

	positionID, err := PositionID(b, sign)
	if err != nil {
		return nil, fmt.Errorf("encode position: %w", err)
	}

	die2 := 0
	if len(dice) > 1 {
		die2 = dice[1]
	}

	// The engine numbers players 0 and 1. The API-facing index feeds the
	// match ID; the console index is what "set turn" expects after the
	// player swap.
	apiIndex, consoleIndex := 0, 1
	if sign == board.Black {
		apiIndex, consoleIndex = 1, 0
	}

	matchID := MatchID(dice[0], die2, apiIndex)
	script := commandScript(matchID, positionID, consoleIndex)

	output, err := a.runner.Run(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("run engine: %w", err)
	}

	hintLine, ok := findHintLine(output)
	if !ok {
		return nil, ErrNoHint
	}

	moveText, ok := extractMoveIsland(hintLine)
	if !ok {
		return nil, fmt.Errorf("%w: unparseable hint line %q", ErrNoHint, hintLine)
	}

	parsed := parseSteps(moveText, sign)

	canonical, ok := reconcile(parsed, turns)
	if !ok {
		a.logger.Error("engine move failed reconciliation",
			"move", moveText,
			"parsed", parsed,
			"position", positionID)
		return nil, ErrDesync
	}

	a.logger.Debug("engine picked turn",
		"move", moveText,
		"turn", canonical,
		"position", positionID)

	return canonical, nil
}
