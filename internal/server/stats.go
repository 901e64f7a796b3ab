package server

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/gammond/internal/game"
	"github.com/lox/gammond/internal/store"
)

// Stats applies end-of-game rewards to the store and appends one record per
// finished game to the stats log. It implements game.StatsRecorder. Either
// sink may be absent; recording failures are logged, never surfaced to the
// game path.
type Stats struct {
	store    *store.Store
	statsLog *store.StatsLog
	clock    quartz.Clock
	logger   *log.Logger
}

// NewStats wires the recorder to its sinks. A nil store disables rewards, a
// nil stats log disables match records.
func NewStats(st *store.Store, statsLog *store.StatsLog, clock quartz.Clock, logger *log.Logger) *Stats {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Stats{
		store:    st,
		statsLog: statsLog,
		clock:    clock,
		logger:   logger.WithPrefix("stats"),
	}
}

// ApplyMatchResult adjusts a player's elo and money. Bot identities are
// skipped before the store is touched.
func (s *Stats) ApplyMatchResult(username string, eloDelta, moneyDelta int) {
	if s.store == nil || store.IsBot(username) {
		return
	}
	if err := s.store.ApplyMatchResult(username, eloDelta, moneyDelta); err != nil {
		s.logger.Error("failed to apply match result", "username", username, "error", err)
	}
}

type statsRecord struct {
	Timestamp string `json:"ts"`
	game.MatchRecord
}

// LogMatch appends the finished game to the stats log with a timestamp.
func (s *Stats) LogMatch(rec game.MatchRecord) {
	if s.statsLog == nil {
		return
	}
	line := statsRecord{
		Timestamp:   s.clock.Now().UTC().Format(time.RFC3339),
		MatchRecord: rec,
	}
	if err := s.statsLog.Append(line); err != nil {
		s.logger.Error("failed to append match record", "game_id", rec.GameID, "error", err)
	}
}
