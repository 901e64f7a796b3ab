package game

import (
	"context"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/randutil"
)

// AIManager drives the bot seat: the PvE opening roll, scheduling a bot
// turn on the worker pool, and walking the chosen turn back into the state.
// The pool task holds no lock; resolve re-enters through the session.
type AIManager struct {
	gameID  string
	logger  *log.Logger
	clock   quartz.Clock
	rand    *rand.Rand
	queue   Enqueuer
	chooser TurnChooser
	pool    Pool

	thinkMin time.Duration
	thinkMax time.Duration

	resolve func(turn board.Turn, dice []int, sign int)
	victory func(botTurn board.Turn) ([]Notification, bool)
}

// firstRoll decides who opens a PvE game. It fixes the seat signs, rolls
// one die per side and on a decisive roll seeds the opening dice. The bool
// reports a tie, in which case the caller rolls again.
func (am *AIManager) firstRoll(st *State, pm *PlayerManager, playerSign int) ([]Notification, bool) {
	pm.playerSign = playerSign
	pm.botSign = -playerSign

	playerRoll := randutil.RollDie(am.rand)
	botRoll := randutil.RollDie(am.rand)
	if playerRoll == botRoll {
		am.logger.Debug("opening roll tied", "pip", playerRoll)
		payload := RollResultPayload{Dice: []int{playerRoll, botRoll}, PossibleTurns: []board.Turn{}}
		return []Notification{notify(pm.sid, EventFirstRollTie, payload)}, true
	}

	var notifications []Notification
	firstTurn := "player"
	if playerRoll > botRoll {
		st.Turn = playerSign
		st.Dice = []int{playerRoll, botRoll}
		st.History = nil
		st.PossibleTurns = board.EnumerateTurns(st.Board, st.Dice, playerSign)
		notifications = append(notifications, notify(pm.sid, EventDiceRollResult,
			RollResultPayload{Dice: st.Dice, PossibleTurns: turnsOrEmpty(st.PossibleTurns)}))
	} else {
		firstTurn = "bot"
		st.Turn = pm.botSign
		st.Dice = []int{botRoll, playerRoll}
		st.History = nil
		st.PossibleTurns = board.EnumerateTurns(st.Board, st.Dice, pm.botSign)
		notifications = append(notifications, notify(pm.sid, EventOpponentRollResult,
			RollResultPayload{Dice: st.Dice, PossibleTurns: turnsOrEmpty(st.PossibleTurns)}))
	}

	am.logger.Debug("opening roll decided", "playerRoll", playerRoll, "botRoll", botRoll, "firstTurn", firstTurn)
	notifications = append(notifications, notify(pm.sid, EventInitialRollResult, InitialRollResultPayload{
		PlayerRoll: playerRoll,
		BotRoll:    botRoll,
		FirstTurn:  firstTurn,
		Dice:       st.Dice,
	}))
	return notifications, false
}

// triggerBotTurn rolls for the bot and hands a snapshot of the position to
// the worker pool. The session lock is released before the engine runs; the
// result comes back through resolve.
func (am *AIManager) triggerBotTurn(st *State, pm *PlayerManager) {
	if st.Phase != PhasePlaying {
		return
	}
	d1, d2 := randutil.RollPair(am.rand)
	dice := []int{d1, d2}
	if d1 == d2 {
		dice = append(dice, d1, d2)
	}
	st.Dice = dice
	st.History = nil
	st.PossibleTurns = board.EnumerateTurns(st.Board, dice, pm.botSign)

	snapshot := st.Board
	diceCopy := append([]int(nil), dice...)
	sign := pm.botSign
	think := randutil.Jitter(am.rand, am.thinkMin, am.thinkMax)

	am.logger.Debug("bot turn scheduled", "dice", dice, "think", think)
	am.pool.Submit(func(ctx context.Context) {
		am.wait(ctx, think)
		turn, err := am.chooser.ChooseTurn(ctx, snapshot, diceCopy, sign)
		if err != nil {
			am.logger.Error("engine turn failed, passing", "error", err)
			turn = nil
		}
		am.resolve(turn, diceCopy, sign)
	})
}

// botTurnResolved validates and replays the engine's turn against the live
// state. Everything it produces goes through the notification queue so the
// consumer can pace the bot's dice and steps for the client animation.
func (am *AIManager) botTurnResolved(st *State, pm *PlayerManager, turn board.Turn, dice []int, sign int) {
	if st.Phase != PhasePlaying {
		am.logger.Debug("bot turn resolved after game left play", "phase", st.Phase)
		return
	}

	all := board.EnumerateTurns(st.Board, dice, sign)
	if len(turn) > 0 && !containsTurn(all, turn) {
		am.logger.Error("bot turn is not among the legal turns, passing", "turn", turn)
		turn = nil
	}
	am.queue.Enqueue(notify(pm.sid, EventBotDiceRollResult,
		RollResultPayload{Dice: intsOrEmpty(dice), PossibleTurns: turnsOrEmpty(all)}))

	for _, step := range turn {
		wasBlot := board.IsPoint(step.To) && st.Board[step.To] == -sign
		st.Board = board.ApplyStep(st.Board, step, sign)
		if sign == board.White && step.To == board.TrayWhite {
			st.BorneOffWhite++
		} else if sign == board.Black && step.To == board.TrayBlack {
			st.BorneOffBlack++
		}
		am.queue.Enqueue(notify(pm.sid, EventBotStepExecuted, OpponentStepPayload{
			AppliedMove:   step,
			BorneOffWhite: st.BorneOffWhite,
			BorneOffBlack: st.BorneOffBlack,
			WasBlot:       wasBlot,
			BoardState:    st.Board,
			IsBotMove:     true,
		}))
		if victory, ended := am.victory(turn); ended {
			for _, n := range victory {
				am.queue.Enqueue(n)
			}
			return
		}
	}

	st.clearTurnData()
	st.Turn = pm.playerSign
	am.queue.Enqueue(notify(pm.sid, EventTurnFinished, TurnFinishedPayload{}))
}

// wait blocks for d or until ctx is cancelled, using the injected clock so
// tests can advance time.
func (am *AIManager) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	done := make(chan struct{})
	timer := am.clock.AfterFunc(d, func() { close(done) })
	defer timer.Stop()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func containsTurn(turns []board.Turn, candidate board.Turn) bool {
	for _, t := range turns {
		if len(t) != len(candidate) {
			continue
		}
		match := true
		for i := range t {
			if t[i] != candidate[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
