package game

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/board"
)

const (
	whiteSID = "sid-white"
	blackSID = "sid-black"
	pveSID   = "sid-pve"
)

// testLogger returns a logger that discards all output.
func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// captureQueue records enqueued notifications for inspection.
type captureQueue struct {
	mu            sync.Mutex
	notifications []Notification
}

func (q *captureQueue) Enqueue(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifications = append(q.notifications, n)
}

func (q *captureQueue) all() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notification(nil), q.notifications...)
}

func (q *captureQueue) events() []string {
	return eventsOf(q.all())
}

// statsCall is one recorded ApplyMatchResult invocation.
type statsCall struct {
	Username string
	Elo      int
	Money    int
}

type captureStats struct {
	mu      sync.Mutex
	applied []statsCall
	matches []MatchRecord
}

func (s *captureStats) ApplyMatchResult(username string, eloDelta, moneyDelta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, statsCall{Username: username, Elo: eloDelta, Money: moneyDelta})
}

func (s *captureStats) LogMatch(rec MatchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, rec)
}

func (s *captureStats) appliedCalls() []statsCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]statsCall(nil), s.applied...)
}

func (s *captureStats) matchRecords() []MatchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MatchRecord(nil), s.matches...)
}

// capturePool collects submitted tasks without running them.
type capturePool struct {
	mu    sync.Mutex
	tasks []func(ctx context.Context)
}

func (p *capturePool) Submit(task func(ctx context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
}

func (p *capturePool) take() []func(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tasks := p.tasks
	p.tasks = nil
	return tasks
}

// removeRecorder records registry removals.
type removeRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *removeRecorder) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *removeRecorder) removed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// firstTurnChooser plays the first enumerated turn, or passes.
type firstTurnChooser struct{}

func (firstTurnChooser) ChooseTurn(_ context.Context, b board.Board, dice []int, sign int) (board.Turn, error) {
	turns := board.EnumerateTurns(b, dice, sign)
	if len(turns) == 0 {
		return nil, nil
	}
	return turns[0], nil
}

// pvpSession builds a session seated by alice (white) and bob (black).
func pvpSession(t *testing.T, cfg SessionConfig) *Session {
	t.Helper()
	cfg.Mode = ModePvP
	if cfg.GameID == "" {
		cfg.GameID = "game-test"
	}
	if cfg.Logger == nil {
		cfg.Logger = testLogger()
	}
	s := NewSession(cfg)
	s.SetupPvP(whiteSID, "alice", blackSID, "bob")
	return s
}

// pveSession builds a session seating alice against Bot_Easy.
func pveSession(t *testing.T, cfg SessionConfig) *Session {
	t.Helper()
	cfg.Mode = ModePvE
	if cfg.GameID == "" {
		cfg.GameID = "game-test"
	}
	if cfg.Logger == nil {
		cfg.Logger = testLogger()
	}
	s := NewSession(cfg)
	s.SetupPvE(pveSID, "alice", "Bot_Easy")
	return s
}

// startPlaying force-marks the session mid-game with the given mover.
func startPlaying(s *Session, turn int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Phase = PhasePlaying
	s.state.Turn = turn
}

// seedSigns fixes the PvE seat signs without running the opening roll.
func seedSigns(s *Session, playerSign int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players.playerSign = playerSign
	s.players.botSign = -playerSign
}

// seedDice installs a known dice vector plus the turns it allows for the
// current mover.
func seedDice(s *Session, dice ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Dice = append([]int(nil), dice...)
	s.state.History = nil
	s.state.PossibleTurns = board.EnumerateTurns(s.state.Board, s.state.Dice, s.state.Turn)
}

// setBoard replaces the position, recomputing possible turns when dice are
// already seeded.
func setBoard(s *Session, b board.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Board = b
	if len(s.state.Dice) > 0 {
		s.state.PossibleTurns = board.EnumerateTurns(b, s.state.Dice, s.state.Turn)
	}
}

// setCounters sets the bear-off counters directly.
func setCounters(s *Session, white, black int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.BorneOffWhite = white
	s.state.BorneOffBlack = black
}

// snapshot returns a copy of the session state. Slices are shared with the
// live state and must not be mutated.
func snapshot(s *Session) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state
}

func eventsOf(notifications []Notification) []string {
	var events []string
	for _, n := range notifications {
		events = append(events, n.Event)
	}
	return events
}

// findNotification returns the first notification carrying event, failing
// the test when absent.
func findNotification(t *testing.T, notifications []Notification, event string) Notification {
	t.Helper()
	for _, n := range notifications {
		if n.Event == event {
			return n
		}
	}
	t.Fatalf("no %s notification in %v", event, eventsOf(notifications))
	return Notification{}
}
