package tui

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/client"
	"github.com/lox/gammond/internal/game"
	"github.com/lox/gammond/internal/server"
	"github.com/lox/gammond/internal/store"
)

func TestMain(m *testing.M) {
	// Rendered frames are matched as plain strings, so strip color
	// sequences no matter what terminal runs the tests.
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	c := client.NewClient("http://localhost:0", "token", quietLogger())
	m := NewModel(c, "alice", nil, quietLogger())
	m.width = 100
	m.height = 40
	return m
}

func mkMsg(t *testing.T, event string, payload any) *server.Message {
	t.Helper()
	msg, err := server.NewMessage(event, payload)
	require.NoError(t, err)
	return msg
}

func TestRenderBoardInitialPosition(t *testing.T) {
	out := RenderBoard(board.Initial(), 0, 0)

	// All thirty checkers are visible; no starting stack exceeds five.
	assert.Equal(t, 15, strings.Count(out, "○"))
	assert.Equal(t, 15, strings.Count(out, "●"))

	assert.Contains(t, out, "13")
	assert.Contains(t, out, "24")
	assert.Contains(t, out, "bar   white 0  black 0")
	assert.Contains(t, out, "off   white 0  black 0")
}

func TestRenderBoardTallStackShowsCount(t *testing.T) {
	var b board.Board
	b[5] = 7 * board.White

	out := RenderBoard(b, 0, 0)

	assert.Equal(t, checkerRows-1, strings.Count(out, "○"))
	assert.Contains(t, out, " 7")
}

func TestRenderBoardBarAndOff(t *testing.T) {
	b := board.Initial()
	b[board.BarWhite] = 2
	b[board.BarBlack] = -1

	out := RenderBoard(b, 3, 5)

	assert.Contains(t, out, "bar   white 2  black 1")
	assert.Contains(t, out, "off   white 3  black 5")
}

func TestBoardFromSetup(t *testing.T) {
	b := boardFromSetup(board.StandardWhiteSetup(), board.StandardBlackSetup())
	assert.Equal(t, board.Initial(), b)
}

func TestParseGameCommand(t *testing.T) {
	cases := []struct {
		name  string
		input string
		sign  int
		want  gameCommand
	}{
		{"roll", "roll", board.White, gameCommand{kind: cmdRoll}},
		{"roll shorthand", "r", board.White, gameCommand{kind: cmdRoll}},
		{"roll uppercase", "ROLL", board.White, gameCommand{kind: cmdRoll}},
		{"undo", "undo", board.White, gameCommand{kind: cmdUndo}},
		{"done", "done", board.White, gameCommand{kind: cmdDone}},
		{"resign", "resign", board.White, gameCommand{kind: cmdResign}},
		{"quit", "quit", board.White, gameCommand{kind: cmdQuit}},
		{"empty", "   ", board.White, gameCommand{kind: cmdEmpty}},
		{"plain step", "8 5", board.White, gameCommand{kind: cmdStep, step: board.Step{From: 8, To: 5}}},
		{"white enters from bar", "bar 20", board.White, gameCommand{kind: cmdStep, step: board.Step{From: board.BarWhite, To: 20}}},
		{"black enters from bar", "bar 3", board.Black, gameCommand{kind: cmdStep, step: board.Step{From: board.BarBlack, To: 3}}},
		{"white bears off", "3 off", board.White, gameCommand{kind: cmdStep, step: board.Step{From: 3, To: board.TrayWhite}}},
		{"black bears off", "22 off", board.Black, gameCommand{kind: cmdStep, step: board.Step{From: 22, To: board.TrayBlack}}},
		{"out of range point", "99 3", board.White, gameCommand{kind: cmdUnknown}},
		{"gibberish", "castle kingside", board.White, gameCommand{kind: cmdUnknown}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseGameCommand(tc.input, tc.sign))
		})
	}
}

func TestHandleGameCreated(t *testing.T) {
	m := newTestModel(t)

	m.handleServerEvent(mkMsg(t, server.EventGameCreated, server.GameCreatedData{GameID: "g1"}))

	assert.Equal(t, "g1", m.gameID)
	assert.Equal(t, screenGame, m.screen)
	assert.Equal(t, "g1", m.client.GameID())
}

func TestHandleInitialSetup(t *testing.T) {
	m := newTestModel(t)

	m.handleServerEvent(mkMsg(t, game.EventInitialSetup, game.InitialSetupPayload{
		Status:       "success",
		WhiteSetup:   board.StandardWhiteSetup(),
		BlackSetup:   board.StandardBlackSetup(),
		OpponentData: map[string]any{"username": "Bot_Easy"},
	}))

	assert.Equal(t, board.Initial(), m.board)
	assert.Equal(t, "Bot_Easy", m.opponent)
}

func TestHandleMatchFoundAssignsBlack(t *testing.T) {
	m := newTestModel(t)

	m.handleServerEvent(mkMsg(t, server.EventMatchFound, server.MatchFoundData{
		GameID:       "g2",
		Role:         "black",
		OpponentData: map[string]any{"username": "bob"},
	}))

	assert.Equal(t, board.Black, m.mySign)
	assert.Equal(t, "bob", m.opponent)
	assert.Equal(t, screenGame, m.screen)
}

func TestHandleRollAndTurnFlow(t *testing.T) {
	m := newTestModel(t)
	m.mySign = board.White
	m.screen = screenGame

	m.handleServerEvent(mkMsg(t, game.EventDiceRollResult, game.RollResultPayload{
		Dice:          []int{3, 1},
		PossibleTurns: []board.Turn{{{From: 8, To: 5}, {From: 6, To: 5}}},
	}))
	assert.True(t, m.myTurn)
	assert.Equal(t, []int{3, 1}, m.dice)

	next := board.ApplyStep(board.Initial(), board.Step{From: 8, To: 5}, board.White)
	m.handleServerEvent(mkMsg(t, game.EventStepAccepted, game.StepAcceptedPayload{
		AppliedMove:   board.Step{From: 8, To: 5},
		RemainingDice: []int{1},
		CanUndo:       true,
		BoardState:    next,
	}))
	assert.Equal(t, next, m.board)
	assert.Equal(t, []int{1}, m.dice)
	assert.True(t, m.canUndo)

	m.handleServerEvent(mkMsg(t, game.EventTurnFinished, game.TurnFinishedPayload{}))
	assert.False(t, m.myTurn)
	assert.Empty(t, m.dice)
	assert.False(t, m.canUndo)

	// Opponent finishing their turn hands it back.
	m.handleServerEvent(mkMsg(t, game.EventTurnFinished, game.TurnFinishedPayload{}))
	assert.True(t, m.myTurn)
}

func TestHandleGameOver(t *testing.T) {
	m := newTestModel(t)
	m.mySign = board.White
	m.screen = screenGame

	m.handleServerEvent(mkMsg(t, game.EventGameOver, game.GameOverPayload{Winner: board.White}))

	assert.Equal(t, screenOver, m.screen)
	assert.Contains(t, m.resultText, "win")
}

func TestHandleProfileUpdate(t *testing.T) {
	m := newTestModel(t)

	m.handleServerEvent(mkMsg(t, server.EventProfileDataUpdate, store.Profile{
		Username: "alice",
		Elo:      7,
		Money:    510,
	}))

	require.NotNil(t, m.profile)
	assert.Equal(t, 7, m.profile.Elo)
}

func TestHandleFullGameSyncInfersTurnFromUndo(t *testing.T) {
	m := newTestModel(t)

	m.handleServerEvent(mkMsg(t, game.EventFullGameSync, game.FullGameSyncPayload{
		BoardState: board.Initial(),
		Dice:       []int{4},
		Turn:       board.Black,
		CanUndo:    true,
	}))

	assert.True(t, m.myTurn)
	assert.Equal(t, board.Black, m.mySign)
	assert.Equal(t, screenGame, m.screen)
}

func TestResetToLobbyClearsGameState(t *testing.T) {
	m := newTestModel(t)
	m.screen = screenOver
	m.gameID = "g1"
	m.mySign = board.White
	m.dice = []int{2, 2}
	m.resultText = "You win!"

	m.resetToLobby()

	assert.Equal(t, screenLobby, m.screen)
	assert.Empty(t, m.gameID)
	assert.Zero(t, m.mySign)
	assert.Empty(t, m.dice)
	assert.Equal(t, board.Initial(), m.board)
}
