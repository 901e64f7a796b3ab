// Package game implements the server side of a single backgammon session:
// the mutable game state, turn processing, seat management with disconnect
// timers, and the bot opponent pipeline. A Session serialises all access to
// its state behind one mutex; the managers it owns assume that lock is held.
package game

import (
	"github.com/lox/gammond/internal/board"
)

// Phase is the lifecycle stage of a session. Transitions are monotonic:
// CREATED -> AWAITING_READY -> STARTING_ROLL -> PLAYING -> FINISHED.
type Phase string

const (
	PhaseCreated       Phase = "CREATED"
	PhaseAwaitingReady Phase = "AWAITING_READY"
	PhaseStartingRoll  Phase = "STARTING_ROLL"
	PhasePlaying       Phase = "PLAYING"
	PhaseFinished      Phase = "FINISHED"
)

// Mode distinguishes two humans from human versus bot.
type Mode string

const (
	ModePvP Mode = "pvp"
	ModePvE Mode = "pve"
)

// State is the authoritative record for one game in progress.
//
// Turn is board.White or board.Black while play is decisive, and 0 during
// the opening-roll tie window. Dice holds the pips still unplayed this turn
// (four entries after a double). History records the steps committed this
// turn in order, so they can be undone last-first. PossibleTurns is kept
// consistent with (Board, Dice, Turn) at every operation boundary.
type State struct {
	Phase Phase
	Board board.Board
	Turn  int

	Dice          []int
	History       []board.MoveRecord
	PossibleTurns []board.Turn

	BorneOffWhite int
	BorneOffBlack int
}

// NewState returns a CREATED state on the standard starting position.
func NewState() *State {
	return &State{
		Phase: PhaseCreated,
		Board: board.Initial(),
	}
}

func (st *State) clearTurnData() {
	st.Dice = nil
	st.History = nil
	st.PossibleTurns = nil
}
