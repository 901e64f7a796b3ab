package game

import (
	"context"
	"io"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/randutil"
)

const (
	// DefaultDisconnectTimeout is how long an empty seat is held open
	// before the absent player forfeits.
	DefaultDisconnectTimeout = 60 * time.Second

	// Default bot think-delay bounds.
	DefaultThinkMin = 500 * time.Millisecond
	DefaultThinkMax = 6 * time.Second
)

// SessionConfig wires a new Session to its collaborators. Zero fields get
// working defaults so tests can construct sessions with only what they
// care about.
type SessionConfig struct {
	GameID string
	Mode   Mode

	Logger  *log.Logger
	Clock   quartz.Clock
	Rand    *rand.Rand
	Queue   Enqueuer
	Stats   StatsRecorder
	Chooser TurnChooser
	Pool    Pool

	// ProfileBySID and ProfileByUsername resolve public player profiles
	// for initial_setup payloads. Either may return nil.
	ProfileBySID      func(sid string) any
	ProfileByUsername func(username string) any

	// RemoveSession tears the session out of the registry once it ends.
	RemoveSession func(gameID string)

	Rewards           RewardsConfig
	DisconnectTimeout time.Duration
	ThinkMin          time.Duration
	ThinkMax          time.Duration
}

// Session is the concurrency boundary around one game. Every public method
// takes the session mutex, then drives the managers, which assume the lock
// is held. Timer and bot-pool callbacks re-enter through public methods so
// the lock is always reacquired before state is touched.
type Session struct {
	id     string
	mode   Mode
	logger *log.Logger

	mu      sync.Mutex
	state   *State
	players *PlayerManager
	turns   *TurnManager
	ai      *AIManager

	profileByUsername func(username string) any

	pendingSign    int
	hasPendingSign bool
}

// NewSession builds a CREATED session for the given mode.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Rand == nil {
		cfg.Rand = randutil.New(time.Now().UnixNano())
	}
	if cfg.Queue == nil {
		cfg.Queue = noopQueue{}
	}
	if cfg.Stats == nil {
		cfg.Stats = noopStats{}
	}
	if cfg.Chooser == nil {
		cfg.Chooser = passChooser{}
	}
	if cfg.Pool == nil {
		cfg.Pool = goroutinePool{}
	}
	if cfg.ProfileBySID == nil {
		cfg.ProfileBySID = func(string) any { return nil }
	}
	if cfg.ProfileByUsername == nil {
		cfg.ProfileByUsername = func(string) any { return nil }
	}
	if cfg.RemoveSession == nil {
		cfg.RemoveSession = func(string) {}
	}
	if cfg.Rewards == (RewardsConfig{}) {
		cfg.Rewards = DefaultRewards()
	}
	if cfg.DisconnectTimeout <= 0 {
		cfg.DisconnectTimeout = DefaultDisconnectTimeout
	}
	if cfg.ThinkMin <= 0 {
		cfg.ThinkMin = DefaultThinkMin
	}
	if cfg.ThinkMax <= 0 {
		cfg.ThinkMax = DefaultThinkMax
	}

	logger := cfg.Logger.With("game_id", cfg.GameID)
	s := &Session{
		id:                cfg.GameID,
		mode:              cfg.Mode,
		logger:            logger,
		state:             NewState(),
		profileByUsername: cfg.ProfileByUsername,
	}
	s.players = &PlayerManager{
		gameID:       cfg.GameID,
		mode:         cfg.Mode,
		logger:       logger,
		clock:        cfg.Clock,
		rand:         cfg.Rand,
		queue:        cfg.Queue,
		stats:        cfg.Stats,
		rewards:      cfg.Rewards,
		remove:       cfg.RemoveSession,
		profileBySID: cfg.ProfileBySID,
		graceTimeout: cfg.DisconnectTimeout,
		expire:       s.handleGraceTimeout,
	}
	s.turns = &TurnManager{
		gameID:  cfg.GameID,
		mode:    cfg.Mode,
		logger:  logger,
		rand:    cfg.Rand,
		stats:   cfg.Stats,
		rewards: cfg.Rewards,
		remove:  cfg.RemoveSession,
	}
	s.ai = &AIManager{
		gameID:   cfg.GameID,
		logger:   logger,
		clock:    cfg.Clock,
		rand:     cfg.Rand,
		queue:    cfg.Queue,
		chooser:  cfg.Chooser,
		pool:     cfg.Pool,
		thinkMin: cfg.ThinkMin,
		thinkMax: cfg.ThinkMax,
		resolve:  s.BotTurnResolved,
	}
	s.ai.victory = func(botTurn board.Turn) ([]Notification, bool) {
		return s.turns.checkVictory(s.state, s.players, botTurn)
	}
	return s
}

// ID returns the session's game id.
func (s *Session) ID() string { return s.id }

// Mode returns pvp or pve.
func (s *Session) Mode() Mode { return s.mode }

// Phase returns the current lifecycle stage.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase
}

// SetupPvE seats the human and names the bot, then waits for the client's
// ready signal.
func (s *Session) SetupPvE(sid, username, botName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players.setupPvE(sid, username, botName)
	s.state.Phase = PhaseAwaitingReady
	s.logger.Info("pve session set up", "username", username, "bot", botName)
}

// SetupPvP seats both humans, then waits for both ready signals.
func (s *Session) SetupPvP(sidWhite, usernameWhite, sidBlack, usernameBlack string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players.setupPvP(sidWhite, usernameWhite, sidBlack, usernameBlack)
	s.state.Phase = PhaseAwaitingReady
	s.logger.Info("pvp session set up", "white", usernameWhite, "black", usernameBlack)
}

// SetPendingSign stashes the side choice sent with the PvE game request
// until the client reports ready for the opening roll.
func (s *Session) SetPendingSign(sign int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSign = sign
	s.hasPendingSign = true
}

// TakePendingSign pops the stashed side choice.
func (s *Session) TakePendingSign() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sign, ok := s.pendingSign, s.hasPendingSign
	s.pendingSign, s.hasPendingSign = 0, false
	return sign, ok
}

// HasSeat reports whether sid currently occupies a seat.
func (s *Session) HasSeat(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, ok := s.players.context(sid)
	return ok
}

// Usernames lists the humans seated in this game.
func (s *Session) Usernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players.allUsernames()
}

// SetReady marks a PvP seat ready. The bool reports that both seats are
// ready and the opening roll should begin.
func (s *Session) SetReady(sid string) (*Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != PhaseAwaitingReady {
		return nil, false
	}
	n, start := s.players.setReady(sid)
	if start {
		s.state.Phase = PhaseStartingRoll
	}
	return n, start
}

// StartPvPGame sends both seats their initial board setup.
func (s *Session) StartPvPGame() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase == PhasePlaying || s.state.Phase == PhaseFinished {
		return nil
	}
	return s.players.startGame()
}

// TriggerPvPFirstRoll rolls for the opening. On a tie the caller re-enters
// after a pause; on a decisive roll the session starts playing.
func (s *Session) TriggerPvPFirstRoll() ([]Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != PhaseStartingRoll {
		return nil, false
	}
	notifications, tie := s.players.firstRollPvP(s.state)
	if !tie {
		s.state.Phase = PhasePlaying
	}
	return notifications, tie
}

// StartPvEFirstRoll runs one attempt of the PvE opening roll. On a tie the
// caller re-enters after a pause; on a decisive roll the session starts
// playing, and if the bot won the opening it starts thinking before this
// returns.
func (s *Session) StartPvEFirstRoll(playerSign int) ([]Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state.Phase {
	case PhaseAwaitingReady:
		s.state.Phase = PhaseStartingRoll
	case PhaseStartingRoll:
		// re-entry after a tie
	default:
		s.logger.Warn("opening roll requested in wrong phase", "phase", s.state.Phase)
		return nil, false
	}

	notifications, tie := s.ai.firstRoll(s.state, s.players, playerSign)
	if tie {
		return notifications, true
	}
	s.state.Phase = PhasePlaying
	if s.state.Turn == s.players.botSign {
		s.ai.triggerBotTurn(s.state, s.players)
	}
	return notifications, false
}

// RollDice rolls for the seat behind sid.
func (s *Session) RollDice(sid string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	notifications, botRollNeeded := s.turns.rollDice(s.state, s.players, sid)
	if botRollNeeded {
		s.ai.triggerBotTurn(s.state, s.players)
	}
	return notifications
}

// ApplyStep commits one sub-move for the seat behind sid.
func (s *Session) ApplyStep(sid string, step board.Step) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.applyStep(s.state, s.players, sid, step)
}

// Undo reverts the most recent step of the current turn.
func (s *Session) Undo(sid string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.undo(s.state, s.players, sid)
}

// FinalizeTurn closes the mover's turn and hands it to the other seat.
func (s *Session) FinalizeTurn(sid string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	notifications, botRollNeeded, ended := s.turns.finalizeTurn(s.state, s.players, sid)
	if !ended && botRollNeeded {
		s.ai.triggerBotTurn(s.state, s.players)
	}
	return notifications
}

// GiveUp forfeits the game for the seat behind sid.
func (s *Session) GiveUp(sid string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.giveUp(s.state, s.players, sid)
}

// HandleDisconnect vacates the seat behind sid and arms the grace timer.
func (s *Session) HandleDisconnect(sid string) *Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players.handleDisconnect(sid)
}

// Rejoin rebinds a fresh connection to the empty seat held by username.
// The returned role is "white", "black" or "pve".
func (s *Session) Rejoin(sid, username string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players.rejoin(sid, username)
}

// RejoinSync assembles the full notification sequence for a connection that
// just rebound to its seat: game_restored, opponent_reconnected if the
// other human is present, initial_setup when the client needs the board
// seeded, and the full_game_sync snapshot.
func (s *Session) RejoinSync(sid string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state

	notifications := []Notification{
		notify(sid, EventGameRestored, MessagePayload{Message: "Connection restored."}),
	}

	sign, opponent, seated := s.players.context(sid)
	if s.mode == ModePvP && opponent != "" {
		notifications = append(notifications, notify(opponent, EventOpponentReconnected, struct{}{}))
	}

	switch {
	case s.mode == ModePvE && st.Phase == PhaseAwaitingReady:
		notifications = append(notifications, notify(sid, EventInitialSetup, InitialSetupPayload{
			Status:       "success",
			WhiteSetup:   board.StandardWhiteSetup(),
			BlackSetup:   board.StandardBlackSetup(),
			OpponentData: s.opponentProfile(sid),
		}))
	case st.Phase == PhasePlaying || st.Phase == PhaseStartingRoll:
		notifications = append(notifications, notify(sid, EventInitialSetup, InitialSetupPayload{
			Status:       "success",
			OpponentData: s.opponentProfile(sid),
		}))
	}

	possible := st.PossibleTurns
	if st.Phase != PhasePlaying {
		possible = nil
	}
	notifications = append(notifications, notify(sid, EventFullGameSync, FullGameSyncPayload{
		BoardState:    st.Board,
		Dice:          intsOrEmpty(st.Dice),
		PossibleTurns: turnsOrEmpty(possible),
		Turn:          st.Turn,
		BorneOffWhite: st.BorneOffWhite,
		BorneOffBlack: st.BorneOffBlack,
		CanUndo:       seated && st.Turn == sign && len(st.History) > 0,
		WhiteReady:    s.players.readyWhite,
		BlackReady:    s.players.readyBlack,
	}))
	return notifications
}

// BotTurnResolved is the worker-pool re-entry point for a finished engine
// call. All resulting notifications go through the queue.
func (s *Session) BotTurnResolved(turn board.Turn, dice []int, sign int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ai.botTurnResolved(s.state, s.players, turn, dice, sign)
}

// handleGraceTimeout is the timer re-entry point for an expired disconnect
// grace period.
func (s *Session) handleGraceTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players.resolveTimeout(s.state)
}

// opponentProfile resolves the public profile shown opposite sid. Lookups
// go by username so a disconnected opponent still resolves.
func (s *Session) opponentProfile(sid string) any {
	if s.mode == ModePvE {
		return s.profileByUsername(s.players.botName)
	}
	opponentName := s.players.usernameBlack
	if sid == s.players.sidBlack {
		opponentName = s.players.usernameWhite
	}
	return s.profileByUsername(opponentName)
}

type noopQueue struct{}

func (noopQueue) Enqueue(Notification) {}

type noopStats struct{}

func (noopStats) ApplyMatchResult(string, int, int) {}

func (noopStats) LogMatch(MatchRecord) {}

// passChooser is the fallback bot: it always passes.
type passChooser struct{}

func (passChooser) ChooseTurn(context.Context, board.Board, []int, int) (board.Turn, error) {
	return nil, nil
}

// goroutinePool runs each task on its own goroutine. The real server
// installs a sized pool; this default keeps lone sessions working.
type goroutinePool struct{}

func (goroutinePool) Submit(task func(ctx context.Context)) {
	go task(context.Background())
}
