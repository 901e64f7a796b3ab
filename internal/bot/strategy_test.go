package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/randutil"
)

func TestNewResolvesBuiltinStrategies(t *testing.T) {
	for _, name := range Names() {
		s, err := New(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}

	_, err := New("psychic")
	assert.Error(t, err)
}

func TestFirstStrategyPlaysFirstTurn(t *testing.T) {
	turns := []board.Turn{
		{{From: 24, To: 21}},
		{{From: 13, To: 10}},
	}

	s := &FirstStrategy{}
	assert.Equal(t, turns[0], s.Choose(nil, board.Initial(), board.White, turns))
}

func TestRandomStrategyPlaysLegalTurn(t *testing.T) {
	turns := []board.Turn{
		{{From: 24, To: 21}},
		{{From: 13, To: 10}},
		{{From: 8, To: 5}},
	}

	s := &RandomStrategy{}
	rng := randutil.New(1)
	for i := 0; i < 20; i++ {
		assert.Contains(t, turns, s.Choose(rng, board.Initial(), board.White, turns))
	}
}

func TestGreedyStrategyPrefersHit(t *testing.T) {
	var b board.Board
	b[8] = board.White
	b[6] = board.White
	b[5] = board.Black // blot

	turns := board.EnumerateTurns(b, []int{3}, board.White)
	require.Len(t, turns, 2)

	s := &GreedyStrategy{}
	chosen := s.Choose(nil, b, board.White, turns)
	require.Len(t, chosen, 1)
	assert.Equal(t, board.Step{From: 8, To: 5}, chosen[0])
}

func TestGreedyStrategyDoubleHit(t *testing.T) {
	var b board.Board
	b[8] = board.White
	b[6] = board.White
	b[7] = board.Black // blot
	b[5] = board.Black // blot

	turns := board.EnumerateTurns(b, []int{2, 1}, board.White)
	require.NotEmpty(t, turns)

	s := &GreedyStrategy{}
	chosen := s.Choose(nil, b, board.White, turns)

	after := b
	for _, step := range chosen {
		after = board.ApplyStep(after, step, board.White)
	}
	assert.Equal(t, -2, after[board.BarBlack], "greedy should send both blots to the bar")
}

func TestGreedyStrategyDeterministicOnTies(t *testing.T) {
	var b board.Board
	b[24] = board.White
	b[13] = board.White

	// Both candidates advance three pips with no hit; ties keep the first.
	turns := board.EnumerateTurns(b, []int{3}, board.White)
	require.Len(t, turns, 2)

	s := &GreedyStrategy{}
	assert.Equal(t, turns[0], s.Choose(nil, b, board.White, turns))
}
