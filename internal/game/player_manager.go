package game

import (
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/randutil"
)

// PlayerManager tracks seat occupancy, readiness, the PvP opening roll and
// the disconnect grace timer. Methods assume the session lock is held; the
// grace timer re-enters through the session so the lock is reacquired
// before resolveTimeout runs.
type PlayerManager struct {
	gameID  string
	mode    Mode
	logger  *log.Logger
	clock   quartz.Clock
	rand    *rand.Rand
	queue   Enqueuer
	stats   StatsRecorder
	rewards RewardsConfig
	remove  func(gameID string)

	profileBySID func(sid string) any
	graceTimeout time.Duration
	expire       func()

	// pve seat
	sid        string
	username   string
	botName    string
	playerSign int
	botSign    int

	// pvp seats
	sidWhite      string
	sidBlack      string
	usernameWhite string
	usernameBlack string
	readyWhite    bool
	readyBlack    bool

	graceTimer *quartz.Timer
}

func (pm *PlayerManager) setupPvE(sid, username, botName string) {
	pm.sid = sid
	pm.username = username
	pm.botName = botName
}

func (pm *PlayerManager) setupPvP(sidWhite, usernameWhite, sidBlack, usernameBlack string) {
	pm.sidWhite = sidWhite
	pm.usernameWhite = usernameWhite
	pm.sidBlack = sidBlack
	pm.usernameBlack = usernameBlack
}

// context resolves a connection to its seat sign and the opponent's sid.
// The opponent sid is empty in PvE and while the opponent is disconnected.
func (pm *PlayerManager) context(sid string) (int, string, bool) {
	if sid == "" {
		return 0, "", false
	}
	switch pm.mode {
	case ModePvP:
		switch sid {
		case pm.sidWhite:
			return board.White, pm.sidBlack, true
		case pm.sidBlack:
			return board.Black, pm.sidWhite, true
		}
	case ModePvE:
		if sid == pm.sid {
			return pm.playerSign, "", true
		}
	}
	return 0, "", false
}

// names returns the winner's and loser's usernames for the given sign. In
// PvE the bot name stands in for the bot seat.
func (pm *PlayerManager) names(winner int) (string, string) {
	if pm.mode == ModePvP {
		if winner == board.White {
			return pm.usernameWhite, pm.usernameBlack
		}
		return pm.usernameBlack, pm.usernameWhite
	}
	if winner == pm.playerSign {
		return pm.username, pm.botName
	}
	return pm.botName, pm.username
}

// presentSIDs lists the currently connected seats, white before black.
func (pm *PlayerManager) presentSIDs() []string {
	var sids []string
	if pm.mode == ModePvP {
		if pm.sidWhite != "" {
			sids = append(sids, pm.sidWhite)
		}
		if pm.sidBlack != "" {
			sids = append(sids, pm.sidBlack)
		}
		return sids
	}
	if pm.sid != "" {
		sids = append(sids, pm.sid)
	}
	return sids
}

// allUsernames lists the human usernames seated in this game.
func (pm *PlayerManager) allUsernames() []string {
	if pm.mode == ModePvP {
		return []string{pm.usernameWhite, pm.usernameBlack}
	}
	return []string{pm.username}
}

// setReady marks a PvP seat ready. The returned notification (if any) goes
// to the opponent; the bool reports that both seats are now ready.
func (pm *PlayerManager) setReady(sid string) (*Notification, bool) {
	if pm.mode != ModePvP {
		return nil, false
	}
	var opponent string
	switch sid {
	case pm.sidWhite:
		if pm.readyWhite {
			return nil, false
		}
		pm.readyWhite = true
		opponent = pm.sidBlack
	case pm.sidBlack:
		if pm.readyBlack {
			return nil, false
		}
		pm.readyBlack = true
		opponent = pm.sidWhite
	default:
		return nil, false
	}
	pm.logger.Debug("player ready", "sid", sid)
	var n *Notification
	if opponent != "" {
		v := notify(opponent, EventOpponentReady, struct{}{})
		n = &v
	}
	return n, pm.readyWhite && pm.readyBlack
}

// startGame sends both seats the initial board setup and each other's
// public profile.
func (pm *PlayerManager) startGame() []Notification {
	whiteSetup := board.StandardWhiteSetup()
	blackSetup := board.StandardBlackSetup()
	return []Notification{
		notify(pm.sidWhite, EventInitialSetup, InitialSetupPayload{
			Status:       "success",
			WhiteSetup:   whiteSetup,
			BlackSetup:   blackSetup,
			OpponentData: pm.profileBySID(pm.sidBlack),
		}),
		notify(pm.sidBlack, EventInitialSetup, InitialSetupPayload{
			Status:       "success",
			WhiteSetup:   whiteSetup,
			BlackSetup:   blackSetup,
			OpponentData: pm.profileBySID(pm.sidWhite),
		}),
	}
}

// firstRollPvP rolls one die per seat. On a tie both seats learn the pips
// and the roll repeats later; otherwise the higher roller moves first using
// both pips as the opening dice.
func (pm *PlayerManager) firstRollPvP(st *State) ([]Notification, bool) {
	rollWhite := randutil.RollDie(pm.rand)
	rollBlack := randutil.RollDie(pm.rand)
	if rollWhite == rollBlack {
		pm.logger.Debug("opening roll tied", "pip", rollWhite)
		st.Turn = 0
		payload := RollResultPayload{Dice: []int{rollWhite, rollBlack}, PossibleTurns: []board.Turn{}}
		return []Notification{
			notify(pm.sidWhite, EventFirstRollTie, payload),
			notify(pm.sidBlack, EventFirstRollTie, payload),
		}, true
	}

	winner := board.White
	winnerSID, loserSID := pm.sidWhite, pm.sidBlack
	dice := []int{rollWhite, rollBlack}
	if rollBlack > rollWhite {
		winner = board.Black
		winnerSID, loserSID = pm.sidBlack, pm.sidWhite
		dice = []int{rollBlack, rollWhite}
	}
	st.Turn = winner
	st.Dice = dice
	st.History = nil
	st.PossibleTurns = board.EnumerateTurns(st.Board, dice, winner)

	pm.logger.Debug("opening roll decided", "winner", winner, "dice", dice)
	payload := RollResultPayload{Dice: dice, PossibleTurns: turnsOrEmpty(st.PossibleTurns)}
	return []Notification{
		notify(winnerSID, EventDiceRollResult, payload),
		notify(loserSID, EventOpponentRollResult, payload),
	}, false
}

// handleDisconnect vacates the seat behind sid and arms the grace timer.
// The returned notification (if any) tells the opponent.
func (pm *PlayerManager) handleDisconnect(sid string) *Notification {
	if sid == "" {
		return nil
	}
	var opponent string
	cleared := false
	switch pm.mode {
	case ModePvP:
		switch sid {
		case pm.sidWhite:
			pm.sidWhite = ""
			opponent = pm.sidBlack
			cleared = true
		case pm.sidBlack:
			pm.sidBlack = ""
			opponent = pm.sidWhite
			cleared = true
		}
	case ModePvE:
		if sid == pm.sid {
			pm.sid = ""
			cleared = true
		}
	}
	if !cleared {
		return nil
	}

	pm.logger.Info("player disconnected, arming grace timer", "sid", sid, "timeout", pm.graceTimeout)
	pm.cancelGraceTimer()
	pm.graceTimer = pm.clock.AfterFunc(pm.graceTimeout, pm.expire)

	if opponent != "" {
		n := notify(opponent, EventOpponentDisconnected, struct{}{})
		return &n
	}
	return nil
}

// rejoin rebinds a fresh connection to the empty seat previously held by
// username. The grace timer is cancelled in PvE always, in PvP only once
// both seats are occupied again.
func (pm *PlayerManager) rejoin(sid, username string) (string, bool) {
	switch pm.mode {
	case ModePvP:
		var role string
		switch {
		case pm.usernameWhite == username && pm.sidWhite == "":
			pm.sidWhite = sid
			role = "white"
		case pm.usernameBlack == username && pm.sidBlack == "":
			pm.sidBlack = sid
			role = "black"
		default:
			return "", false
		}
		if pm.sidWhite != "" && pm.sidBlack != "" {
			pm.cancelGraceTimer()
		}
		pm.logger.Info("player rejoined", "sid", sid, "role", role)
		return role, true
	case ModePvE:
		if pm.username != username {
			return "", false
		}
		pm.sid = sid
		pm.cancelGraceTimer()
		pm.logger.Info("player rejoined", "sid", sid, "role", "pve")
		return "pve", true
	}
	return "", false
}

func (pm *PlayerManager) cancelGraceTimer() {
	if pm.graceTimer != nil {
		pm.graceTimer.Stop()
		pm.graceTimer = nil
	}
}

// resolveTimeout runs when the grace timer fires with a seat still empty.
// The absent player forfeits; a survivor learns via the notification queue
// since no socket turn is driving this path.
func (pm *PlayerManager) resolveTimeout(st *State) {
	pm.graceTimer = nil
	if st.Phase == PhaseFinished {
		return
	}
	switch pm.mode {
	case ModePvE:
		if pm.sid != "" {
			return
		}
		pm.logger.Info("grace timer expired, bot wins by forfeit", "loser", pm.username)
		st.Phase = PhaseFinished
		recordResult(pm.stats, pm.rewards, pm.gameID, pm.mode, OutcomeTimeout, pm.botName, pm.username)
		pm.remove(pm.gameID)
	case ModePvP:
		switch {
		case pm.sidWhite == "" && pm.sidBlack == "":
			pm.logger.Info("grace timer expired with both seats empty")
			st.Phase = PhaseFinished
			pm.remove(pm.gameID)
		case pm.sidWhite == "" || pm.sidBlack == "":
			winner := board.White
			winnerName, loserName := pm.usernameWhite, pm.usernameBlack
			survivor := pm.sidWhite
			if pm.sidWhite == "" {
				winner = board.Black
				winnerName, loserName = pm.usernameBlack, pm.usernameWhite
				survivor = pm.sidBlack
			}
			pm.logger.Info("grace timer expired, forfeit", "winner", winnerName, "loser", loserName)
			st.Phase = PhaseFinished
			recordResult(pm.stats, pm.rewards, pm.gameID, pm.mode, OutcomeTimeout, winnerName, loserName)
			pm.queue.Enqueue(notify(survivor, EventOpponentTimeoutVictory, struct{}{}))
			pm.queue.Enqueue(notify(survivor, EventGameOver, GameOverPayload{Winner: winner, Reason: "opponent_timeout"}))
			pm.remove(pm.gameID)
		}
	}
}
