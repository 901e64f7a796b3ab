// Package board implements the rules of short backgammon over a flat
// 28-slot board vector: initial setup, single-step application and undo,
// full-turn enumeration for a dice roll, step validation, and win
// detection. All functions are pure; callers own locking and state.
package board

// Player signs. White checkers are stored as positive counts, Black as
// negative counts.
const (
	White = 1
	Black = -1
)

// Slot indexes. Points are 1..24. Each side has a bar slot for captured
// checkers and a tray slot for borne-off checkers. Tray slots mirror the
// bear-off counters kept by the caller and are never consulted for
// move legality.
const (
	TrayWhite = 0
	Point1    = 1
	Point24   = 24
	BarWhite  = 25
	TrayBlack = 26
	BarBlack  = 27
)

// WinningCount is the number of borne-off checkers that ends the game.
const WinningCount = 15

// Board is the full game position. Index 0 and 26 are trays, 25 and 27
// are bars, 1..24 are points. Sign of each entry is the owning color.
type Board [28]int

// Step is a single checker movement in board coordinates.
type Step struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Turn is an ordered sequence of steps consuming one die each.
type Turn []Step

// MoveRecord is one committed step plus what is needed to undo it.
type MoveRecord struct {
	Step    Step `json:"step"`
	DieUsed int  `json:"die_used"`
	WasBlot bool `json:"was_blot"`
}

// Standard starting counts per point, before signs are applied.
var (
	whiteSetup = map[int]int{24: 2, 13: 5, 8: 3, 6: 5}
	blackSetup = map[int]int{1: 2, 12: 5, 17: 3, 19: 5}
)

// StandardWhiteSetup returns the white starting counts keyed by point.
func StandardWhiteSetup() map[int]int {
	out := make(map[int]int, len(whiteSetup))
	for point, count := range whiteSetup {
		out[point] = count
	}
	return out
}

// StandardBlackSetup returns the black starting counts keyed by point.
func StandardBlackSetup() map[int]int {
	out := make(map[int]int, len(blackSetup))
	for point, count := range blackSetup {
		out[point] = count
	}
	return out
}

// Initial returns the standard starting position.
func Initial() Board {
	var b Board
	for point, count := range whiteSetup {
		b[point] = count * White
	}
	for point, count := range blackSetup {
		b[point] = count * Black
	}
	return b
}

// Bar returns the bar slot index for the given player sign.
func Bar(sign int) int {
	if sign == White {
		return BarWhite
	}
	return BarBlack
}

// Tray returns the bear-off tray slot index for the given player sign.
func Tray(sign int) int {
	if sign == White {
		return TrayWhite
	}
	return TrayBlack
}

// IsPoint reports whether the slot index is a regular point.
func IsPoint(slot int) bool {
	return slot >= Point1 && slot <= Point24
}

// ApplyStep applies one step for the given mover and returns the new
// position. Landing on a point held by exactly one opponent checker
// sends that checker to the opponent's bar. The step is assumed legal;
// use MoveDetails to validate first.
func ApplyStep(b Board, s Step, sign int) Board {
	b[s.From] -= sign

	switch {
	case IsPoint(s.To):
		if b[s.To]*sign == -1 {
			// Hit: the blot goes to the opponent's bar.
			b[Bar(-sign)] -= sign
			b[s.To] = sign
		} else if b[s.To]*sign >= 0 {
			b[s.To] += sign
		}
	case s.To == TrayWhite || s.To == TrayBlack:
		b[s.To] += sign
	}

	return b
}

// UndoStep inverts ApplyStep. The record's WasBlot flag restores a
// captured checker from the opponent's bar; bear-off trays and counters
// are both wound back so apply-then-undo is an exact identity.
func UndoStep(b Board, rec MoveRecord, sign, borneWhite, borneBlack int) (Board, int, int) {
	s := rec.Step

	if IsPoint(s.To) {
		b[s.To] -= sign
	}

	if sign == White && s.To == TrayWhite {
		b[s.To] -= sign
		borneWhite--
	} else if sign == Black && s.To == TrayBlack {
		b[s.To] -= sign
		borneBlack--
	}

	if rec.WasBlot {
		b[Bar(-sign)] += sign
		b[s.To] -= sign
	}

	if s.From == BarWhite || s.From == BarBlack || IsPoint(s.From) {
		b[s.From] += sign
	}

	return b, borneWhite, borneBlack
}

// PipCount returns the total pip distance the given player must still
// travel to bear off every checker. Checkers on the bar count the full
// 25 pips.
func PipCount(b Board, sign int) int {
	pips := 0
	for p := Point1; p <= Point24; p++ {
		n := b[p] * sign
		if n <= 0 {
			continue
		}
		if sign == White {
			pips += n * p
		} else {
			pips += n * (Point24 + 1 - p)
		}
	}
	if onBar := b[Bar(sign)] * sign; onBar > 0 {
		pips += onBar * 25
	}
	return pips
}

// Winner returns White, Black, or 0 given the two bear-off counters.
func Winner(borneWhite, borneBlack int) int {
	if borneWhite >= WinningCount {
		return White
	}
	if borneBlack >= WinningCount {
		return Black
	}
	return 0
}
