package gnubg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gammond/internal/board"
)

const sampleHintOutput = `GNU Backgammon  Position ID: 4HPwATDgc/ABMA
                Match ID   : MIEFAAAAAAAA

 gnubg rolls 3 and 1.

    1. Cubeful 2-ply    8/5 6/5                      Eq.:  +0.159
       0.554 0.141 0.007 - 0.446 0.124 0.005
`

func TestFindHintLine(t *testing.T) {
	line, ok := findHintLine(sampleHintOutput)
	require.True(t, ok)
	assert.Contains(t, line, "8/5 6/5")

	_, ok = findHintLine("usage: no game in progress\n")
	assert.False(t, ok)
}

func TestExtractMoveIsland(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "plain pair",
			line: "    1. Cubeful 2-ply    8/5 6/5                      Eq.:  +0.159",
			want: "8/5 6/5",
		},
		{
			name: "bar entry with hit",
			line: "    1. Cubeful 0-ply    bar/22* 24/18                Eq.:  -0.012",
			want: "bar/22* 24/18",
		},
		{
			name: "bear off",
			line: "    1. Cubeful 2-ply    6/off 4/off                  Eq.:  +1.021",
			want: "6/off 4/off",
		},
		{
			name: "doubles with multiplier",
			line: "    1. Cubeful 2-ply    13/11(2) 6/4(2)              Eq.:  +0.044",
			want: "13/11(2) 6/4(2)",
		},
		{
			name: "collapsed chain",
			line: "    1. Cubeful 2-ply    24/13                        Eq.:  +0.102",
			want: "24/13",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractMoveIsland(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := extractMoveIsland("    1. Cubeful 2-ply    8/5 6/5")
	assert.False(t, ok, "line without equity marker carries no hint")
}

func TestExpandChain(t *testing.T) {
	tests := []struct {
		token string
		want  []string
	}{
		{token: "8/5", want: []string{"8/5"}},
		{token: "8/5*", want: []string{"8/5*"}},
		{token: "6/4(2)", want: []string{"6/4", "6/4"}},
		{token: "8/5/3", want: []string{"8/5", "5/3"}},
		{token: "8/5/3(2)", want: []string{"8/5", "5/3", "8/5", "5/3"}},
		{token: "bar/22*/21", want: []string{"bar/22*", "22/21"}},
		{token: "24/18*/13*", want: []string{"24/18*", "18/13*"}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, expandChain(tt.token))
		})
	}
}

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name string
		move string
		sign int
		want []board.Step
	}{
		{
			name: "white plain pair",
			move: "8/5 6/5",
			sign: board.White,
			want: []board.Step{{From: 8, To: 5}, {From: 6, To: 5}},
		},
		{
			name: "white bar entry with hit",
			move: "bar/22* 24/18",
			sign: board.White,
			want: []board.Step{{From: board.BarWhite, To: 22}, {From: 24, To: 18}},
		},
		{
			name: "white bear off",
			move: "6/off 4/off",
			sign: board.White,
			want: []board.Step{{From: 6, To: board.TrayWhite}, {From: 4, To: board.TrayWhite}},
		},
		{
			name: "white chained doubles",
			move: "8/5/3(2)",
			sign: board.White,
			want: []board.Step{{From: 8, To: 5}, {From: 5, To: 3}, {From: 8, To: 5}, {From: 5, To: 3}},
		},
		{
			name: "white multiplied pairs",
			move: "13/11(2) 6/4(2)",
			sign: board.White,
			want: []board.Step{
				{From: 13, To: 11}, {From: 13, To: 11},
				{From: 6, To: 4}, {From: 6, To: 4},
			},
		},
		{
			name: "black points mirror",
			move: "8/5 6/5",
			sign: board.Black,
			want: []board.Step{{From: 17, To: 20}, {From: 19, To: 20}},
		},
		{
			name: "black bar entry",
			move: "bar/22 24/18",
			sign: board.Black,
			want: []board.Step{{From: board.BarBlack, To: 3}, {From: 1, To: 7}},
		},
		{
			name: "black bear off",
			move: "3/off",
			sign: board.Black,
			want: []board.Step{{From: 22, To: board.TrayBlack}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSteps(tt.move, tt.sign))
		})
	}
}

func TestParseStepsIgnoresNoise(t *testing.T) {
	assert.Empty(t, parseSteps("", board.White))
	assert.Empty(t, parseSteps("cannot move", board.White))
}
