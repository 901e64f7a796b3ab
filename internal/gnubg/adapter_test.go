package gnubg

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gammond/internal/board"
)

type fakeRunner struct {
	output string
	err    error
	calls  int
	input  string
}

func (f *fakeRunner) Run(_ context.Context, input string) (string, error) {
	f.calls++
	f.input = input
	return f.output, f.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// hintOutput wraps a move in the surrounding chatter a real engine prints.
func hintOutput(move string) string {
	return strings.Join([]string{
		"GNU Backgammon  Position ID: 4HPwATDgc/ABMA",
		"                Match ID   : MIEFAAAAAAAA",
		"",
		"    1. Cubeful 2-ply    " + move + "                     Eq.:  +0.159",
		"       0.554 0.141 0.007 - 0.446 0.124 0.005",
		"",
	}, "\n")
}

// midGameWhite is a small position where White holds points 8 and 6 and
// Black sits out of reach on the 1 point.
func midGameWhite() board.Board {
	var b board.Board
	b[8] = 2
	b[6] = 2
	b[board.TrayWhite] = 11
	b[board.Point1] = -15
	return b
}

func TestChooseTurnDirectMatch(t *testing.T) {
	runner := &fakeRunner{output: hintOutput("8/5 6/5")}
	adapter := New(runner, testLogger())

	turn, err := adapter.ChooseTurn(context.Background(), midGameWhite(), []int{3, 1}, board.White)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]board.Step{{From: 8, To: 5}, {From: 6, To: 5}},
		[]board.Step(turn))

	require.Equal(t, 1, runner.calls)
	assert.Contains(t, runner.input, "set matchid MIEFAAAAAAAA\n")
	assert.Contains(t, runner.input, "set turn 1\n")
	assert.Contains(t, runner.input, "swap players\n")
	assert.Contains(t, runner.input, "hint 1\n")

	posID, err := PositionID(midGameWhite(), board.White)
	require.NoError(t, err)
	assert.Contains(t, runner.input, "set board "+posID+"\n")
}

func TestChooseTurnCollapsedChain(t *testing.T) {
	var b board.Board
	b[board.Point24] = 1
	b[board.Point1] = 14
	b[12] = -15

	runner := &fakeRunner{output: hintOutput("24/13")}
	adapter := New(runner, testLogger())

	turn, err := adapter.ChooseTurn(context.Background(), b, []int{6, 5}, board.White)
	require.NoError(t, err)

	// The engine collapses the two hops into one segment; the result must
	// still be one of the atomic enumerated sequences.
	require.Len(t, turn, 2)
	assert.Equal(t, []board.Step{{From: 24, To: 13}}, reduceTurn(turn))
}

func TestChooseTurnBlackCoordinates(t *testing.T) {
	var b board.Board
	b[board.Point1] = -2
	b[board.TrayBlack] = -13
	b[board.Point24] = 15

	// Mover-relative 24/21 24/23 is board 1->4 and 1->2 for Black.
	runner := &fakeRunner{output: hintOutput("24/21 24/23")}
	adapter := New(runner, testLogger())

	turn, err := adapter.ChooseTurn(context.Background(), b, []int{3, 1}, board.Black)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]board.Step{{From: 1, To: 4}, {From: 1, To: 2}},
		[]board.Step(turn))

	assert.Contains(t, runner.input, "set matchid cIkFAAAAAAAA\n")
	assert.Contains(t, runner.input, "set turn 0\n")
}

func TestChooseTurnDesync(t *testing.T) {
	runner := &fakeRunner{output: hintOutput("13/10 6/5")}
	adapter := New(runner, testLogger())

	_, err := adapter.ChooseTurn(context.Background(), midGameWhite(), []int{3, 1}, board.White)
	require.ErrorIs(t, err, ErrDesync)
}

func TestChooseTurnNoMovesSkipsEngine(t *testing.T) {
	// White dances on the bar against a closed home board.
	var b board.Board
	b[board.BarWhite] = 1
	b[board.TrayWhite] = 14
	for p := 19; p <= 24; p++ {
		b[p] = -2
	}
	b[board.Point1] = -3

	runner := &fakeRunner{output: hintOutput("unused")}
	adapter := New(runner, testLogger())

	turn, err := adapter.ChooseTurn(context.Background(), b, []int{3, 1}, board.White)
	require.NoError(t, err)
	assert.Nil(t, turn)
	assert.Zero(t, runner.calls)
}

func TestChooseTurnEmptyDice(t *testing.T) {
	runner := &fakeRunner{}
	adapter := New(runner, testLogger())

	turn, err := adapter.ChooseTurn(context.Background(), board.Initial(), nil, board.White)
	require.NoError(t, err)
	assert.Nil(t, turn)
	assert.Zero(t, runner.calls)
}

func TestChooseTurnNoHint(t *testing.T) {
	runner := &fakeRunner{output: "** Couldn't find a match\n"}
	adapter := New(runner, testLogger())

	_, err := adapter.ChooseTurn(context.Background(), midGameWhite(), []int{3, 1}, board.White)
	require.ErrorIs(t, err, ErrNoHint)
}

func TestChooseTurnRunnerError(t *testing.T) {
	boom := errors.New("engine exploded")
	runner := &fakeRunner{err: boom}
	adapter := New(runner, testLogger())

	_, err := adapter.ChooseTurn(context.Background(), midGameWhite(), []int{3, 1}, board.White)
	require.ErrorIs(t, err, boom)
}
