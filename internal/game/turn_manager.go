package game

import (
	rand "math/rand/v2"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/randutil"
)

// TurnManager owns the mid-game operations: rolling, stepping, undo, turn
// finalisation and the end-of-game path. Methods assume the session lock is
// held and return the notifications the caller should deliver.
type TurnManager struct {
	gameID  string
	mode    Mode
	logger  *log.Logger
	rand    *rand.Rand
	stats   StatsRecorder
	rewards RewardsConfig
	remove  func(gameID string)
}

// rollDice rolls for the seat behind sid. The second return value is true
// when the roll produced no legal moves and the bot holds the next turn.
func (tm *TurnManager) rollDice(st *State, pm *PlayerManager, sid string) ([]Notification, bool) {
	if st.Phase != PhasePlaying {
		tm.logger.Warn("roll rejected, game not in progress", "sid", sid, "phase", st.Phase)
		return []Notification{reject(sid, "The game has not started or is already over.")}, false
	}
	sign, opponent, ok := pm.context(sid)
	if !ok {
		tm.logger.Error("roll from a connection with no seat", "sid", sid)
		return nil, false
	}
	if st.Turn != sign {
		return []Notification{reject(sid, "It is not your turn.")}, false
	}
	if len(st.Dice) > 0 {
		return []Notification{reject(sid, "Dice already rolled.")}, false
	}
	if len(st.History) > 0 {
		return []Notification{reject(sid, "You have already moved, finish your turn.")}, false
	}

	d1, d2 := randutil.RollPair(tm.rand)
	dice := []int{d1, d2}
	if d1 == d2 {
		dice = append(dice, d1, d2)
	}
	possible := board.EnumerateTurns(st.Board, dice, sign)

	st.Dice = dice
	st.History = nil
	st.PossibleTurns = possible

	tm.logger.Debug("dice rolled", "sid", sid, "dice", dice, "turns", len(possible))

	payload := RollResultPayload{Dice: dice, PossibleTurns: turnsOrEmpty(possible)}
	notifications := []Notification{notify(sid, EventDiceRollResult, payload)}
	if opponent != "" {
		notifications = append(notifications, notify(opponent, EventOpponentRollResult, payload))
	}

	botRollNeeded := false
	if !board.MovesAvailable(possible) {
		tm.logger.Debug("no moves available, passing turn", "sid", sid, "dice", dice)
		st.clearTurnData()
		st.Turn = -sign
		botRollNeeded = tm.mode == ModePvE
		notifications = append(notifications,
			notify(sid, EventTurnFinished, TurnFinishedPayload{Message: "No moves available."}))
		if opponent != "" {
			notifications = append(notifications, notify(opponent, EventTurnFinished, TurnFinishedPayload{}))
		}
	}
	return notifications, botRollNeeded
}

// applyStep commits one sub-move for the seat behind sid. When the step
// bears off the mover's fifteenth checker, only the game_over notifications
// are returned.
func (tm *TurnManager) applyStep(st *State, pm *PlayerManager, sid string, step board.Step) []Notification {
	if st.Phase != PhasePlaying {
		return []Notification{reject(sid, "Move not possible, the game is not active.")}
	}
	sign, opponent, ok := pm.context(sid)
	if !ok {
		tm.logger.Error("step from a connection with no seat", "sid", sid)
		return nil
	}
	if st.Turn != sign {
		return []Notification{reject(sid, "It is not your turn.")}
	}

	valid, dieUsed, wasBlot := board.MoveDetails(st.Board, st.Dice, sign, step, st.PossibleTurns)
	if !valid {
		tm.logger.Warn("illegal step rejected", "sid", sid, "from", step.From, "to", step.To)
		return []Notification{reject(sid, "Illegal move.")}
	}

	st.Board = board.ApplyStep(st.Board, step, sign)
	if sign == board.White && step.To == board.TrayWhite {
		st.BorneOffWhite++
	} else if sign == board.Black && step.To == board.TrayBlack {
		st.BorneOffBlack++
	}
	st.Dice = removeDie(st.Dice, dieUsed)
	st.History = append(st.History, board.MoveRecord{Step: step, DieUsed: dieUsed, WasBlot: wasBlot})
	if len(st.Dice) > 0 {
		st.PossibleTurns = board.EnumerateTurns(st.Board, st.Dice, sign)
	} else {
		st.PossibleTurns = nil
	}

	if victory, ended := tm.checkVictory(st, pm, nil); ended {
		return victory
	}

	notifications := []Notification{notify(sid, EventStepAccepted, StepAcceptedPayload{
		AppliedMove:   step,
		RemainingDice: intsOrEmpty(st.Dice),
		PossibleTurns: turnsOrEmpty(st.PossibleTurns),
		CanUndo:       len(st.History) > 0,
		BorneOffWhite: st.BorneOffWhite,
		BorneOffBlack: st.BorneOffBlack,
		BoardState:    st.Board,
	})}
	if opponent != "" {
		notifications = append(notifications, notify(opponent, EventOpponentStepExecuted, OpponentStepPayload{
			AppliedMove:   step,
			BorneOffWhite: st.BorneOffWhite,
			BorneOffBlack: st.BorneOffBlack,
			WasBlot:       wasBlot,
			BoardState:    st.Board,
		}))
	}
	return notifications
}

// undo reverts the mover's most recent step of the current turn.
func (tm *TurnManager) undo(st *State, pm *PlayerManager, sid string) []Notification {
	if st.Phase != PhasePlaying {
		return nil
	}
	sign, opponent, ok := pm.context(sid)
	if !ok {
		return nil
	}
	if st.Turn != sign {
		return []Notification{notify(sid, EventError, MessagePayload{Message: "Cannot undo while not your turn."})}
	}
	if len(st.History) == 0 {
		return []Notification{notify(sid, EventError, MessagePayload{Message: "No moves to undo."})}
	}

	rec := st.History[len(st.History)-1]
	st.History = st.History[:len(st.History)-1]
	st.Board, st.BorneOffWhite, st.BorneOffBlack = board.UndoStep(st.Board, rec, sign, st.BorneOffWhite, st.BorneOffBlack)
	st.Dice = append(st.Dice, rec.DieUsed)
	sort.Sort(sort.Reverse(sort.IntSlice(st.Dice)))
	st.PossibleTurns = board.EnumerateTurns(st.Board, st.Dice, sign)

	tm.logger.Debug("step undone", "sid", sid, "from", rec.Step.From, "to", rec.Step.To)

	notifications := []Notification{notify(sid, EventUndoAccepted, UndoAcceptedPayload{
		RevertedMove:     rec,
		RemainingDice:    intsOrEmpty(st.Dice),
		PossibleTurns:    turnsOrEmpty(st.PossibleTurns),
		CanUndo:          len(st.History) > 0,
		BorneOffWhite:    st.BorneOffWhite,
		BorneOffBlack:    st.BorneOffBlack,
		SuppressAutomove: true,
		BoardState:       st.Board,
	})}
	if opponent != "" {
		notifications = append(notifications, notify(opponent, EventOpponentUndoExecuted, OpponentUndoPayload{
			RevertedMove:  rec,
			BorneOffWhite: st.BorneOffWhite,
			BorneOffBlack: st.BorneOffBlack,
			BoardState:    st.Board,
		}))
	}
	return notifications
}

// finalizeTurn closes the mover's turn. The extra return values report
// whether the bot must roll next and whether the game just ended.
func (tm *TurnManager) finalizeTurn(st *State, pm *PlayerManager, sid string) ([]Notification, bool, bool) {
	if st.Phase != PhasePlaying {
		return nil, false, false
	}
	sign, opponent, ok := pm.context(sid)
	if !ok || st.Turn != sign {
		return nil, false, false
	}
	if board.MovesAvailable(st.PossibleTurns) {
		return []Notification{reject(sid, "You must play all available moves.")}, false, false
	}
	if victory, ended := tm.checkVictory(st, pm, nil); ended {
		return victory, false, true
	}

	st.clearTurnData()
	st.Turn = -sign
	botRollNeeded := tm.mode == ModePvE

	notifications := []Notification{notify(sid, EventTurnFinished, TurnFinishedPayload{})}
	if opponent != "" {
		notifications = append(notifications, notify(opponent, EventTurnFinished, TurnFinishedPayload{}))
	}
	return notifications, botRollNeeded, false
}

// giveUp forfeits the game for the seat behind sid.
func (tm *TurnManager) giveUp(st *State, pm *PlayerManager, sid string) []Notification {
	sign, _, ok := pm.context(sid)
	if !ok {
		return nil
	}
	tm.logger.Info("player gave up", "sid", sid)
	return tm.endGame(st, pm, -sign, OutcomeGiveUp, "give_up", nil)
}

// checkVictory runs the end-of-game path when a side has borne off all
// fifteen checkers. botTurn is attached to the winner payload when the
// bot's own move sequence ended the game.
func (tm *TurnManager) checkVictory(st *State, pm *PlayerManager, botTurn board.Turn) ([]Notification, bool) {
	winner := board.Winner(st.BorneOffWhite, st.BorneOffBlack)
	if winner == 0 {
		return nil, false
	}
	return tm.endGame(st, pm, winner, OutcomeWin, "", botTurn), true
}

// endGame marks the session FINISHED, applies rewards, records the match
// and notifies every present seat. It is a no-op on an already finished
// session, which makes the forfeit paths idempotent.
func (tm *TurnManager) endGame(st *State, pm *PlayerManager, winner int, outcome, reason string, botTurn board.Turn) []Notification {
	if st.Phase == PhaseFinished {
		return nil
	}
	st.Phase = PhaseFinished
	st.clearTurnData()

	winnerName, loserName := pm.names(winner)
	recordResult(tm.stats, tm.rewards, tm.gameID, tm.mode, outcome, winnerName, loserName)
	tm.logger.Info("game over", "winner", winnerName, "outcome", outcome)

	payload := GameOverPayload{Winner: winner, Reason: reason, BotTurn: botTurn}
	var notifications []Notification
	for _, seat := range pm.presentSIDs() {
		notifications = append(notifications, notify(seat, EventGameOver, payload))
	}
	tm.remove(tm.gameID)
	return notifications
}

// recordResult applies the reward deltas and appends one stats record. It
// is shared by the victory, give-up and timeout paths.
func recordResult(stats StatsRecorder, rewards RewardsConfig, gameID string, mode Mode, outcome, winnerName, loserName string) {
	if winnerName != "" {
		stats.ApplyMatchResult(winnerName, rewards.EloWin, rewards.MoneyWin)
	}
	if loserName != "" {
		stats.ApplyMatchResult(loserName, rewards.EloLoss, 0)
	}
	stats.LogMatch(MatchRecord{
		GameID:          gameID,
		Mode:            strings.ToUpper(string(mode)),
		Outcome:         outcome,
		Winner:          winnerName,
		Loser:           loserName,
		EloChangeWinner: rewards.EloWin,
		EloChangeLoser:  rewards.EloLoss,
	})
}

// removeDie drops the first occurrence of die from dice.
func removeDie(dice []int, die int) []int {
	out := make([]int, 0, len(dice))
	removed := false
	for _, d := range dice {
		if !removed && d == die {
			removed = true
			continue
		}
		out = append(out, d)
	}
	return out
}
