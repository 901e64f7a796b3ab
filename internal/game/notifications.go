package game

import (
	"github.com/lox/gammond/internal/board"
)

// Notification is one outbound event addressed to a single connection. The
// gateway either emits it directly on the originating socket turn or, for
// timer- and bot-originated traffic, drains it from the notification queue.
type Notification struct {
	Event     string
	Payload   any
	Recipient string
}

// Event names produced by the session layer. The wire envelope carries these
// verbatim, so they must stay stable across client versions.
const (
	EventDiceRollResult         = "dice_roll_result"
	EventOpponentRollResult     = "opponent_roll_result"
	EventBotDiceRollResult      = "bot_dice_roll_result"
	EventStepAccepted           = "step_accepted"
	EventOpponentStepExecuted   = "opponent_step_executed"
	EventBotStepExecuted        = "on_opponent_step_executed"
	EventUndoAccepted           = "undo_accepted"
	EventOpponentUndoExecuted   = "opponent_undo_executed"
	EventTurnFinished           = "turn_finished"
	EventGameOver               = "game_over"
	EventInitialSetup           = "initial_setup"
	EventFirstRollTie           = "first_roll_tie"
	EventInitialRollResult      = "initial_roll_result"
	EventOpponentReady          = "opponent_ready"
	EventOpponentDisconnected   = "opponent_disconnected"
	EventOpponentReconnected    = "opponent_reconnected"
	EventOpponentTimeoutVictory = "opponent_timeout_victory"
	EventGameRestored           = "game_restored"
	EventFullGameSync           = "full_game_sync"
	EventMoveRejection          = "move_rejection"
	EventError                  = "error"
)

// RollResultPayload announces freshly rolled dice together with every legal
// turn for the player on roll. It backs dice_roll_result, the opponent and
// bot variants, and first_roll_tie (where PossibleTurns is always empty).
type RollResultPayload struct {
	Dice          []int        `json:"dice"`
	PossibleTurns []board.Turn `json:"possible_turns"`
}

// StepAcceptedPayload confirms a committed step to the seat that played it.
type StepAcceptedPayload struct {
	AppliedMove   board.Step   `json:"applied_move"`
	RemainingDice []int        `json:"remaining_dice"`
	PossibleTurns []board.Turn `json:"possible_turns"`
	CanUndo       bool         `json:"can_undo"`
	BorneOffWhite int          `json:"borne_off_white"`
	BorneOffBlack int          `json:"borne_off_black"`
	BoardState    board.Board  `json:"board_state"`
}

// OpponentStepPayload mirrors a committed step to the other seat. IsBotMove
// is set only on the bot walk variant so clients can pace their animation.
type OpponentStepPayload struct {
	AppliedMove   board.Step  `json:"applied_move"`
	BorneOffWhite int         `json:"borne_off_white"`
	BorneOffBlack int         `json:"borne_off_black"`
	WasBlot       bool        `json:"was_blot"`
	BoardState    board.Board `json:"board_state"`
	IsBotMove     bool        `json:"is_bot_move,omitempty"`
}

// UndoAcceptedPayload confirms a reverted step to the seat that undid it.
// SuppressAutomove tells the client not to immediately replay a forced move.
type UndoAcceptedPayload struct {
	RevertedMove     board.MoveRecord `json:"reverted_move"`
	RemainingDice    []int            `json:"remaining_dice"`
	PossibleTurns    []board.Turn     `json:"possible_turns"`
	CanUndo          bool             `json:"can_undo"`
	BorneOffWhite    int              `json:"borne_off_white"`
	BorneOffBlack    int              `json:"borne_off_black"`
	SuppressAutomove bool             `json:"suppress_automove"`
	BoardState       board.Board      `json:"board_state"`
}

// OpponentUndoPayload mirrors a reverted step to the other seat.
type OpponentUndoPayload struct {
	RevertedMove  board.MoveRecord `json:"reverted_move"`
	BorneOffWhite int              `json:"borne_off_white"`
	BorneOffBlack int              `json:"borne_off_black"`
	BoardState    board.Board      `json:"board_state"`
}

// TurnFinishedPayload closes a turn. Message is set when the turn ended
// without input, such as a roll with no legal moves.
type TurnFinishedPayload struct {
	Message string `json:"message,omitempty"`
}

// GameOverPayload reports the winner sign. BotTurn carries the bot's final
// move sequence when its own turn ended the game, so the client can animate
// the closing steps before showing the result.
type GameOverPayload struct {
	Winner  int        `json:"winner"`
	Reason  string     `json:"reason,omitempty"`
	BotTurn board.Turn `json:"bot_turn,omitempty"`
}

// InitialSetupPayload seeds the client board. The setup maps are nil on
// mid-game reconnects, where the board arrives via full_game_sync instead.
type InitialSetupPayload struct {
	Status       string      `json:"status"`
	WhiteSetup   map[int]int `json:"white_setup"`
	BlackSetup   map[int]int `json:"black_setup"`
	OpponentData any         `json:"opponent_data"`
}

// InitialRollResultPayload summarises the PvE opening roll for the human.
type InitialRollResultPayload struct {
	PlayerRoll int    `json:"player_roll"`
	BotRoll    int    `json:"bot_roll"`
	FirstTurn  string `json:"first_turn"`
	Dice       []int  `json:"dice"`
}

// FullGameSyncPayload is the reconnect snapshot.
type FullGameSyncPayload struct {
	BoardState    board.Board  `json:"board_state"`
	Dice          []int        `json:"dice"`
	PossibleTurns []board.Turn `json:"possible_turns"`
	Turn          int          `json:"turn"`
	BorneOffWhite int          `json:"borne_off_white"`
	BorneOffBlack int          `json:"borne_off_black"`
	CanUndo       bool         `json:"can_undo"`
	WhiteReady    bool         `json:"white_ready"`
	BlackReady    bool         `json:"black_ready"`
}

// MessagePayload is the single-field body shared by move_rejection, error
// and game_restored.
type MessagePayload struct {
	Message string `json:"message"`
}

func notify(recipient, event string, payload any) Notification {
	return Notification{Event: event, Payload: payload, Recipient: recipient}
}

func reject(recipient, message string) Notification {
	return notify(recipient, EventMoveRejection, MessagePayload{Message: message})
}

// Wire payloads use empty arrays rather than nulls for absent collections.
func intsOrEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func turnsOrEmpty(v []board.Turn) []board.Turn {
	if v == nil {
		return []board.Turn{}
	}
	return v
}
