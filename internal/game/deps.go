package game

import (
	"context"

	"github.com/lox/gammond/internal/board"
)

// Enqueuer places notifications onto the process-wide delivery queue. Timer
// and bot callbacks run off the socket goroutines, so their traffic goes
// through the queue instead of being emitted inline.
type Enqueuer interface {
	Enqueue(n Notification)
}

// StatsRecorder applies end-of-game rewards and appends match outcomes to
// the stats log. Implementations ignore bot identities.
type StatsRecorder interface {
	ApplyMatchResult(username string, eloDelta, moneyDelta int)
	LogMatch(rec MatchRecord)
}

// TurnChooser picks the bot's turn for a position snapshot. A nil turn with
// a nil error means the bot has no legal moves and must pass.
type TurnChooser interface {
	ChooseTurn(ctx context.Context, b board.Board, dice []int, sign int) (board.Turn, error)
}

// Pool runs bot work off the session goroutines. The context it hands to
// tasks is cancelled on server shutdown.
type Pool interface {
	Submit(task func(ctx context.Context))
}

// RewardsConfig holds the stat deltas applied when a game ends. EloLoss is
// negative in the usual configuration.
type RewardsConfig struct {
	EloWin   int
	MoneyWin int
	EloLoss  int
}

// DefaultRewards returns the long-standing live values.
func DefaultRewards() RewardsConfig {
	return RewardsConfig{EloWin: 1, MoneyWin: 10, EloLoss: -1}
}

// Outcomes recorded in the stats log.
const (
	OutcomeWin     = "WIN"
	OutcomeGiveUp  = "GIVE_UP"
	OutcomeTimeout = "TIMEOUT"
)

// MatchRecord is one line of the append-only stats log.
type MatchRecord struct {
	GameID          string `json:"game_id"`
	Mode            string `json:"mode"`
	Outcome         string `json:"outcome"`
	Winner          string `json:"winner"`
	Loser           string `json:"loser"`
	EloChangeWinner int    `json:"elo_change_winner"`
	EloChangeLoser  int    `json:"elo_change_loser"`
}
