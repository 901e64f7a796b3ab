package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/game"
	"github.com/lox/gammond/internal/gameid"
	"github.com/lox/gammond/internal/randutil"
)

// botLevels maps the client's requested difficulty to the bot identity
// seated in the game.
var botLevels = map[string]string{
	"easy": "Bot_Easy",
}

// maxOpeningAttempts bounds the first-roll tie loop. Six-sided ties make
// the bound unreachable in practice.
const maxOpeningAttempts = 20

// ServiceConfig wires a GameService to its collaborators. Zero fields get
// working defaults so tests can construct services with only what they
// care about.
type ServiceConfig struct {
	Logger     *log.Logger
	Clock      quartz.Clock
	Seed       int64
	Registry   *Registry
	Matchmaker *Matchmaker
	Queue      *NotificationQueue
	Pool       game.Pool
	Chooser    game.TurnChooser
	Stats      game.StatsRecorder

	// Profiles resolves a username to its public profile, nil when the
	// store cannot answer.
	Profiles func(username string) any

	// UserBySID resolves a connection to its authenticated username.
	UserBySID func(sid string) (string, bool)

	// Emit delivers one notification through the gateway. Used by the
	// asynchronous opening-roll flows; synchronous paths return their
	// notifications to the caller instead.
	Emit func(n game.Notification)

	Rewards           game.RewardsConfig
	DisconnectTimeout time.Duration
	ThinkMin          time.Duration
	ThinkMax          time.Duration
	SetupDelay        time.Duration
	FirstRollPacing   time.Duration
}

// GameService is the gateway-facing façade over sessions, the registry and
// the matchmaker. Each method resolves the caller's session, drives it, and
// returns the notifications to emit on the caller's socket turn.
type GameService struct {
	logger     *log.Logger
	clock      quartz.Clock
	registry   *Registry
	matchmaker *Matchmaker
	queue      *NotificationQueue
	pool       game.Pool
	chooser    game.TurnChooser
	stats      game.StatsRecorder
	profiles   func(username string) any
	userBySID  func(sid string) (string, bool)
	emit       func(n game.Notification)

	rewards           game.RewardsConfig
	disconnectTimeout time.Duration
	thinkMin          time.Duration
	thinkMax          time.Duration
	setupDelay        time.Duration
	firstRollPacing   time.Duration

	baseSeed    int64
	seedCounter atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewGameService builds a service from cfg.
func NewGameService(cfg ServiceConfig) *GameService {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Matchmaker == nil {
		cfg.Matchmaker = NewMatchmaker(randutil.New(cfg.Seed))
	}
	if cfg.Queue == nil {
		cfg.Queue = NewNotificationQueue()
	}
	if cfg.Profiles == nil {
		cfg.Profiles = func(string) any { return nil }
	}
	if cfg.UserBySID == nil {
		cfg.UserBySID = func(string) (string, bool) { return "", false }
	}
	if cfg.Emit == nil {
		cfg.Emit = func(game.Notification) {}
	}
	if cfg.Rewards == (game.RewardsConfig{}) {
		cfg.Rewards = game.DefaultRewards()
	}
	if cfg.SetupDelay <= 0 {
		cfg.SetupDelay = time.Second
	}
	if cfg.FirstRollPacing <= 0 {
		cfg.FirstRollPacing = 1500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &GameService{
		logger:            cfg.Logger.WithPrefix("service"),
		clock:             cfg.Clock,
		registry:          cfg.Registry,
		matchmaker:        cfg.Matchmaker,
		queue:             cfg.Queue,
		pool:              cfg.Pool,
		chooser:           cfg.Chooser,
		stats:             cfg.Stats,
		profiles:          cfg.Profiles,
		userBySID:         cfg.UserBySID,
		emit:              cfg.Emit,
		rewards:           cfg.Rewards,
		disconnectTimeout: cfg.DisconnectTimeout,
		thinkMin:          cfg.ThinkMin,
		thinkMax:          cfg.ThinkMax,
		setupDelay:        cfg.SetupDelay,
		firstRollPacing:   cfg.FirstRollPacing,
		baseSeed:          cfg.Seed,
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Close stops the service's background opening-roll loops.
func (gs *GameService) Close() {
	gs.cancel()
}

// Registry exposes the session registry for the gateway's sync path.
func (gs *GameService) Registry() *Registry {
	return gs.registry
}

// ProfileData resolves the public profile for username, nil when the store
// cannot answer.
func (gs *GameService) ProfileData(username string) any {
	return gs.profiles(username)
}

// newSession builds a session wired to the service's collaborators. Each
// session gets its own RNG so sessions never contend on one stream.
func (gs *GameService) newSession(gameID string, mode game.Mode) *game.Session {
	seed := gs.baseSeed + gs.seedCounter.Add(1)
	return game.NewSession(game.SessionConfig{
		GameID:  gameID,
		Mode:    mode,
		Logger:  gs.logger,
		Clock:   gs.clock,
		Rand:    randutil.New(seed),
		Queue:   gs.queue,
		Stats:   gs.stats,
		Chooser: gs.chooser,
		Pool:    gs.pool,
		ProfileBySID: func(sid string) any {
			if username, ok := gs.userBySID(sid); ok {
				return gs.profiles(username)
			}
			return nil
		},
		ProfileByUsername: gs.profiles,
		RemoveSession:     gs.registry.RemoveByID,
		Rewards:           gs.rewards,
		DisconnectTimeout: gs.disconnectTimeout,
		ThinkMin:          gs.thinkMin,
		ThinkMax:          gs.thinkMax,
	})
}

// FindPVPMatch queues sid for a PvP game or pairs it with the waiting head.
func (gs *GameService) FindPVPMatch(sid string) []game.Notification {
	username, ok := gs.userBySID(sid)
	if !ok {
		return reject(sid, "Not authenticated.")
	}
	if _, active := gs.registry.ByUser(username); active {
		return []game.Notification{
			notify(sid, EventMatchmakingRejected, MessageData{Message: "You are already in an active game."}),
		}
	}

	status, match := gs.matchmaker.FindOrQueue(sid)
	switch status {
	case Matched:
		return gs.createPvPMatch(match)
	default:
		return []game.Notification{notify(sid, EventSearchingMatch, struct{}{})}
	}
}

// createPvPMatch resolves both identities and profiles, creates and
// registers the session, and tells both seats. A vanished partner or a
// failed profile lookup puts the surviving seat back at the head of the
// queue.
func (gs *GameService) createPvPMatch(match Match) []game.Notification {
	whiteUser, whiteOK := gs.userBySID(match.WhiteSID)
	blackUser, blackOK := gs.userBySID(match.BlackSID)

	var whiteProfile, blackProfile any
	if whiteOK {
		whiteProfile = gs.profiles(whiteUser)
	}
	if blackOK {
		blackProfile = gs.profiles(blackUser)
	}

	if whiteProfile == nil || blackProfile == nil {
		var out []game.Notification
		for _, seat := range []struct {
			sid     string
			profile any
		}{
			{match.WhiteSID, whiteProfile},
			{match.BlackSID, blackProfile},
		} {
			if seat.profile == nil {
				continue
			}
			gs.matchmaker.Requeue(seat.sid)
			out = append(out,
				notify(seat.sid, EventMatchFailedRequeued, struct{}{}),
				notify(seat.sid, EventSearchingMatch, struct{}{}),
			)
		}
		gs.logger.Warn("pvp match failed, survivors requeued",
			"white_ok", whiteProfile != nil, "black_ok", blackProfile != nil)
		return out
	}

	gameID := gameid.Generate()
	s := gs.newSession(gameID, game.ModePvP)
	s.SetupPvP(match.WhiteSID, whiteUser, match.BlackSID, blackUser)
	gs.registry.Add(s, []string{match.WhiteSID, match.BlackSID}, []string{whiteUser, blackUser})

	gs.logger.Info("pvp match created", "game_id", gameID, "white", whiteUser, "black", blackUser)
	return []game.Notification{
		notify(match.WhiteSID, EventMatchFound, MatchFoundData{GameID: gameID, Role: "white", OpponentData: blackProfile}),
		notify(match.BlackSID, EventMatchFound, MatchFoundData{GameID: gameID, Role: "black", OpponentData: whiteProfile}),
	}
}

// CancelSearch removes sid from the matchmaking queue.
func (gs *GameService) CancelSearch(sid string) []game.Notification {
	if gs.matchmaker.Cancel(sid) {
		return []game.Notification{notify(sid, EventSearchCancelled, struct{}{})}
	}
	return nil
}

// StartPVE creates a game against a bot and seeds the client board. The
// opening roll waits for the client's ready_for_roll.
func (gs *GameService) StartPVE(sid string, data StartPVEData) []game.Notification {
	username, ok := gs.userBySID(sid)
	if !ok {
		return reject(sid, "Not authenticated.")
	}
	botName, ok := botLevels[data.BotLevel]
	if !ok {
		return []game.Notification{
			notify(sid, game.EventError, game.MessagePayload{Message: "Invalid bot level."}),
		}
	}
	if data.PlayerSign != board.White && data.PlayerSign != board.Black {
		return []game.Notification{
			notify(sid, game.EventError, game.MessagePayload{Message: "Invalid player sign."}),
		}
	}
	if _, active := gs.registry.ByUser(username); active {
		return []game.Notification{
			notify(sid, EventMatchmakingRejected, MessageData{Message: "You are already in an active game."}),
		}
	}

	gameID := gameid.Generate()
	s := gs.newSession(gameID, game.ModePvE)
	s.SetupPvE(sid, username, botName)
	s.SetPendingSign(data.PlayerSign)
	gs.registry.Add(s, []string{sid}, []string{username})

	gs.logger.Info("pve game created", "game_id", gameID, "username", username, "bot", botName)
	return []game.Notification{
		notify(sid, EventGameCreated, GameCreatedData{GameID: gameID}),
		notify(sid, game.EventInitialSetup, game.InitialSetupPayload{
			Status:       "success",
			WhiteSetup:   board.StandardWhiteSetup(),
			BlackSetup:   board.StandardBlackSetup(),
			OpponentData: gs.profiles(botName),
		}),
	}
}

// ReadyForRoll starts the PvE opening once the client has drawn the board.
// The roll loop runs off the socket goroutine so tie pacing cannot stall
// the read pump.
func (gs *GameService) ReadyForRoll(sid, gameID string) []game.Notification {
	s, ok := gs.registry.ByID(gameID)
	if !ok {
		return reject(sid, "No active game found.")
	}
	if !s.HasSeat(sid) {
		return reject(sid, "You are not seated in this game.")
	}
	sign, ok := s.TakePendingSign()
	if !ok {
		// duplicate ready signal; the opening is already running
		return nil
	}
	go gs.runPvEOpening(s, sign)
	return nil
}

func (gs *GameService) runPvEOpening(s *game.Session, playerSign int) {
	for attempt := 0; attempt < maxOpeningAttempts; attempt++ {
		notifications, tie := s.StartPvEFirstRoll(playerSign)
		gs.emitAll(notifications)
		if !tie {
			return
		}
		if !gs.pause(gs.firstRollPacing) {
			return
		}
	}
	gs.logger.Error("pve opening roll exhausted retries", "game_id", s.ID())
}

// Ready marks a PvP seat ready; when both are, the setup payloads and the
// opening roll run off the socket goroutine.
func (gs *GameService) Ready(sid string) []game.Notification {
	s, ok := gs.registry.BySocket(sid)
	if !ok {
		return reject(sid, "No active game found.")
	}
	n, start := s.SetReady(sid)
	var out []game.Notification
	if n != nil {
		out = append(out, *n)
	}
	if start {
		go gs.runPvPOpening(s)
	}
	return out
}

func (gs *GameService) runPvPOpening(s *game.Session) {
	gs.emitAll(s.StartPvPGame())
	if !gs.pause(gs.setupDelay) {
		return
	}
	for attempt := 0; attempt < maxOpeningAttempts; attempt++ {
		notifications, tie := s.TriggerPvPFirstRoll()
		gs.emitAll(notifications)
		if !tie {
			return
		}
		if !gs.pause(gs.firstRollPacing) {
			return
		}
	}
	gs.logger.Error("pvp opening roll exhausted retries", "game_id", s.ID())
}

// Roll rolls dice for the seat behind sid.
func (gs *GameService) Roll(sid string) []game.Notification {
	s, ok := gs.registry.BySocket(sid)
	if !ok {
		return reject(sid, "No active game found.")
	}
	return s.RollDice(sid)
}

// Step commits one sub-move for the seat behind sid.
func (gs *GameService) Step(sid string, step board.Step) []game.Notification {
	s, ok := gs.registry.BySocket(sid)
	if !ok {
		return reject(sid, "No active game found.")
	}
	return s.ApplyStep(sid, step)
}

// Undo reverts the most recent step of the caller's turn.
func (gs *GameService) Undo(sid string) []game.Notification {
	s, ok := gs.registry.BySocket(sid)
	if !ok {
		return reject(sid, "No active game found.")
	}
	return s.Undo(sid)
}

// FinishTurn closes the caller's turn.
func (gs *GameService) FinishTurn(sid string) []game.Notification {
	s, ok := gs.registry.BySocket(sid)
	if !ok {
		return reject(sid, "No active game found.")
	}
	return s.FinalizeTurn(sid)
}

// GiveUp forfeits the caller's game.
func (gs *GameService) GiveUp(sid string) []game.Notification {
	s, ok := gs.registry.BySocket(sid)
	if !ok {
		return reject(sid, "No active game found.")
	}
	return s.GiveUp(sid)
}

// Disconnect handles a dropped connection: leave the matchmaking queue,
// release the socket index entry, vacate the seat and arm the grace timer.
func (gs *GameService) Disconnect(sid string) []game.Notification {
	gs.matchmaker.Cancel(sid)
	s, ok := gs.registry.BySocket(sid)
	if !ok {
		return nil
	}
	gs.registry.DropSocket(sid)
	if n := s.HandleDisconnect(sid); n != nil {
		return []game.Notification{*n}
	}
	return nil
}

// ReadyForSync rebinds a fresh connection to any game its username is
// seated in and returns the full restore sequence, or reports that no game
// is waiting.
func (gs *GameService) ReadyForSync(sid string) []game.Notification {
	username, ok := gs.userBySID(sid)
	if !ok {
		return reject(sid, "Not authenticated.")
	}
	s, ok := gs.registry.ByUser(username)
	if !ok {
		return []game.Notification{notify(sid, EventSyncCompleteNoGame, struct{}{})}
	}
	role, ok := s.Rejoin(sid, username)
	if !ok {
		return []game.Notification{notify(sid, EventReconnectFailed, ReconnectFailedData{GameID: s.ID()})}
	}
	gs.registry.AssociateSocket(sid, s.ID())
	gs.logger.Info("player rejoined", "game_id", s.ID(), "username", username, "role", role)
	return s.RejoinSync(sid)
}

func (gs *GameService) emitAll(notifications []game.Notification) {
	for _, n := range notifications {
		gs.emit(n)
	}
}

// pause blocks for d on the injected clock. It reports false when the
// service closed first.
func (gs *GameService) pause(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	done := make(chan struct{})
	timer := gs.clock.AfterFunc(d, func() { close(done) })
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-gs.ctx.Done():
		return false
	}
}

func notify(recipient, event string, payload any) game.Notification {
	return game.Notification{Event: event, Payload: payload, Recipient: recipient}
}

func reject(recipient, message string) []game.Notification {
	return []game.Notification{
		notify(recipient, game.EventMoveRejection, game.MessagePayload{Message: message}),
	}
}
