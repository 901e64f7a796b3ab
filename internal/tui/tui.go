// Package tui is the interactive terminal client: a lobby for starting
// games, a board view driven by server events, and a command line for
// rolling, stepping and finishing turns.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/client"
	"github.com/lox/gammond/internal/game"
	"github.com/lox/gammond/internal/server"
	"github.com/lox/gammond/internal/store"
)

type screen int

const (
	screenLobby screen = iota
	screenSearching
	screenGame
	screenOver
)

type lobbyEntry struct {
	label string
	level string // bot level; empty for the other entries
	pvp   bool
	quit  bool
}

var lobbyEntries = []lobbyEntry{
	{label: "Play the bot", level: "easy"},
	{label: "Find an online match", pvp: true},
	{label: "Quit", quit: true},
}

// ServerEventMsg wraps one server message for the update loop.
type ServerEventMsg struct {
	Message *server.Message
}

// ConnClosedMsg reports the connection dropped.
type ConnClosedMsg struct{}

// Model is the Bubble Tea model for the game client.
type Model struct {
	client *client.Client
	logger *log.Logger

	screen    screen
	menuIndex int
	profile   *store.Profile
	username  string

	gameID   string
	mySign   int
	opponent string

	board      board.Board
	borneWhite int
	borneBlack int
	dice       []int
	canUndo    bool
	myTurn     bool
	resultText string

	logViewport viewport.Model
	input       textinput.Model
	gameLog     []string

	width       int
	height      int
	initialized bool
	quitting    bool
}

// NewModel creates the client model. profile may be nil until the server
// pushes profile_data_update.
func NewModel(c *client.Client, username string, profile *store.Profile, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "roll, <from> <to>, undo, done, resign"
	ti.Focus()
	ti.CharLimit = 60
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "

	return &Model{
		client:      c,
		logger:      logger.WithPrefix("tui"),
		screen:      screenLobby,
		username:    username,
		profile:     profile,
		board:       board.Initial(),
		logViewport: vp,
		input:       ti,
		gameLog:     []string{},
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ConnClosedMsg:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ServerEventMsg:
		m.handleServerEvent(msg.Message)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		}
		switch m.screen {
		case screenLobby:
			return m.updateLobby(msg)
		case screenSearching:
			if msg.String() == "esc" {
				_ = m.client.CancelSearch()
			}
		case screenGame:
			if msg.String() == "enter" {
				m.submitCommand(strings.TrimSpace(m.input.Value()))
				m.input.SetValue("")
			}
		case screenOver:
			if msg.String() == "enter" {
				m.resetToLobby()
			}
		}
	}

	var cmd tea.Cmd
	if m.screen == screenGame {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateLobby(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(lobbyEntries)-1 {
			m.menuIndex++
		}
	case "enter":
		entry := lobbyEntries[m.menuIndex]
		switch {
		case entry.quit:
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case entry.pvp:
			_ = m.client.FindMatch()
		default:
			m.mySign = board.White
			_ = m.client.StartPVE(entry.level, board.White)
		}
	}
	return m, nil
}

// resetToLobby clears the per-game state after a finished game.
func (m *Model) resetToLobby() {
	m.screen = screenLobby
	m.gameID = ""
	m.mySign = 0
	m.opponent = ""
	m.board = board.Initial()
	m.borneWhite = 0
	m.borneBlack = 0
	m.dice = nil
	m.canUndo = false
	m.myTurn = false
	m.resultText = ""
	m.gameLog = nil
	m.client.SetGameID("")
}

// submitCommand parses and executes one game input line.
func (m *Model) submitCommand(value string) {
	cmd := parseGameCommand(value, m.mySign)
	switch cmd.kind {
	case cmdEmpty:
	case cmdRoll:
		_ = m.client.RequestRoll()
	case cmdStep:
		_ = m.client.SendStep(cmd.step)
	case cmdUndo:
		_ = m.client.RequestUndo()
	case cmdDone:
		_ = m.client.FinishTurn()
	case cmdResign:
		_ = m.client.GiveUp()
	case cmdQuit:
		m.quitting = true
	default:
		m.addLog(ErrorStyle.Render("unknown command: " + value))
	}
}

func (m *Model) addLog(line string) {
	m.gameLog = append(m.gameLog, line)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// handleServerEvent applies one server event to the model.
func (m *Model) handleServerEvent(msg *server.Message) {
	switch msg.Event {

	case server.EventProfileDataUpdate:
		var p store.Profile
		if unmarshal(msg, &p) {
			m.profile = &p
		}

	case server.EventGameCreated:
		var data server.GameCreatedData
		if unmarshal(msg, &data) {
			m.gameID = data.GameID
			m.client.SetGameID(data.GameID)
			m.screen = screenGame
			m.addLog("Game created.")
			_ = m.client.ReadyForRoll(data.GameID)
		}

	case server.EventMatchFound:
		var data server.MatchFoundData
		if unmarshal(msg, &data) {
			m.gameID = data.GameID
			m.client.SetGameID(data.GameID)
			m.mySign = board.White
			if data.Role == "black" {
				m.mySign = board.Black
			}
			m.opponent = profileName(data.OpponentData)
			m.screen = screenGame
			m.addLog(SuccessStyle.Render("Matched against " + m.opponent + ", playing " + data.Role + "."))
			_ = m.client.Ready()
		}

	case server.EventSearchingMatch:
		m.screen = screenSearching

	case server.EventSearchCancelled:
		m.screen = screenLobby

	case server.EventMatchmakingRejected, server.EventReconnectFailed:
		m.addLog(ErrorStyle.Render(messageOf(msg)))

	case server.EventMatchFailedRequeued:
		m.addLog(WarningStyle.Render("Match fell through, searching again."))
		m.screen = screenSearching

	case server.EventSyncCompleteNoGame:
		m.screen = screenLobby

	case game.EventGameRestored:
		m.screen = screenGame
		m.addLog(SuccessStyle.Render("Reconnected to your game."))

	case game.EventInitialSetup:
		var data game.InitialSetupPayload
		if unmarshal(msg, &data) {
			if data.WhiteSetup != nil || data.BlackSetup != nil {
				m.board = boardFromSetup(data.WhiteSetup, data.BlackSetup)
				m.borneWhite = 0
				m.borneBlack = 0
			}
			if name := profileName(data.OpponentData); name != "" {
				m.opponent = name
			}
		}

	case game.EventFullGameSync:
		var data game.FullGameSyncPayload
		if unmarshal(msg, &data) {
			m.board = data.BoardState
			m.dice = data.Dice
			m.borneWhite = data.BorneOffWhite
			m.borneBlack = data.BorneOffBlack
			m.canUndo = data.CanUndo
			if m.mySign != 0 {
				m.myTurn = data.Turn == m.mySign
			} else if data.CanUndo {
				// only the seat on turn can undo
				m.myTurn = true
				m.mySign = data.Turn
			}
			m.screen = screenGame
		}

	case game.EventInitialRollResult:
		var data game.InitialRollResultPayload
		if unmarshal(msg, &data) {
			m.addLog(fmt.Sprintf("Opening roll: you %d, opponent %d.", data.PlayerRoll, data.BotRoll))
			if data.FirstTurn != "player" {
				m.addLog("Opponent moves first.")
			}
		}

	case game.EventFirstRollTie:
		m.addLog("Opening roll tied, rolling again.")

	case game.EventOpponentReady:
		m.addLog("Opponent is ready.")

	case game.EventDiceRollResult:
		var data game.RollResultPayload
		if unmarshal(msg, &data) {
			m.dice = data.Dice
			m.myTurn = true
			m.canUndo = false
			m.addLog(DiceStyle.Render(fmt.Sprintf("You rolled %v.", data.Dice)) +
				fmt.Sprintf(" %d possible turns.", len(data.PossibleTurns)))
		}

	case game.EventOpponentRollResult, game.EventBotDiceRollResult:
		var data game.RollResultPayload
		if unmarshal(msg, &data) {
			m.myTurn = false
			m.addLog(fmt.Sprintf("Opponent rolled %v.", data.Dice))
		}

	case game.EventStepAccepted:
		var data game.StepAcceptedPayload
		if unmarshal(msg, &data) {
			m.board = data.BoardState
			m.dice = data.RemainingDice
			m.canUndo = data.CanUndo
			m.borneWhite = data.BorneOffWhite
			m.borneBlack = data.BorneOffBlack
			m.addLog(fmt.Sprintf("Moved %d/%d.", data.AppliedMove.From, data.AppliedMove.To))
		}

	case game.EventOpponentStepExecuted, game.EventBotStepExecuted:
		var data game.OpponentStepPayload
		if unmarshal(msg, &data) {
			m.board = data.BoardState
			m.borneWhite = data.BorneOffWhite
			m.borneBlack = data.BorneOffBlack
			line := fmt.Sprintf("Opponent moved %d/%d.", data.AppliedMove.From, data.AppliedMove.To)
			if data.WasBlot {
				line += " Blot hit!"
			}
			m.addLog(line)
		}

	case game.EventUndoAccepted:
		var data game.UndoAcceptedPayload
		if unmarshal(msg, &data) {
			m.board = data.BoardState
			m.dice = data.RemainingDice
			m.canUndo = data.CanUndo
			m.borneWhite = data.BorneOffWhite
			m.borneBlack = data.BorneOffBlack
			m.addLog("Step undone.")
		}

	case game.EventOpponentUndoExecuted:
		var data game.OpponentUndoPayload
		if unmarshal(msg, &data) {
			m.board = data.BoardState
			m.borneWhite = data.BorneOffWhite
			m.borneBlack = data.BorneOffBlack
			m.addLog("Opponent undid a step.")
		}

	case game.EventTurnFinished:
		var data game.TurnFinishedPayload
		if unmarshal(msg, &data) && data.Message != "" {
			m.addLog(data.Message)
		}
		if m.myTurn {
			m.addLog("Turn over, waiting for opponent.")
		} else {
			m.addLog(SuccessStyle.Render("Your turn, type roll."))
		}
		m.myTurn = !m.myTurn
		m.dice = nil
		m.canUndo = false

	case game.EventOpponentDisconnected:
		m.addLog(WarningStyle.Render("Opponent disconnected. They have a minute to return."))

	case game.EventOpponentReconnected:
		m.addLog("Opponent reconnected.")

	case game.EventOpponentTimeoutVictory:
		m.addLog(SuccessStyle.Render("Opponent never returned."))

	case game.EventGameOver:
		var data game.GameOverPayload
		if unmarshal(msg, &data) {
			m.screen = screenOver
			if m.mySign != 0 && data.Winner == m.mySign {
				m.resultText = SuccessStyle.Render("You win!")
			} else if m.mySign != 0 {
				m.resultText = ErrorStyle.Render("You lose.")
			} else {
				m.resultText = fmt.Sprintf("Game over, winner: %s.", signName(data.Winner))
			}
			if data.Reason != "" {
				m.resultText += InfoStyle.Render(" (" + data.Reason + ")")
			}
		}

	case game.EventMoveRejection, game.EventError:
		m.addLog(ErrorStyle.Render(messageOf(msg)))

	case server.EventAuthFailed:
		m.addLog(ErrorStyle.Render("Authentication failed: " + messageOf(msg)))

	default:
		m.logger.Debug("unhandled event", "event", msg.Event)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	switch m.screen {
	case screenLobby:
		return m.viewLobby()
	case screenSearching:
		return m.viewSearching()
	default:
		return m.viewGame()
	}
}

func (m *Model) viewLobby() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("gammond"))
	sb.WriteString("\n\n")
	if m.profile != nil {
		sb.WriteString(InfoStyle.Render(fmt.Sprintf("%s  elo %d  money %d  diamonds %d",
			m.profile.Username, m.profile.Elo, m.profile.Money, m.profile.Diamonds)))
		sb.WriteString("\n\n")
	}
	for i, entry := range lobbyEntries {
		cursor := "  "
		label := entry.label
		if i == m.menuIndex {
			cursor = "> "
			label = SelectedStyle.Render(label)
		}
		sb.WriteString(cursor + label + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(InfoStyle.Render("↑↓ select • Enter confirm • Ctrl+C quit"))
	return sb.String()
}

func (m *Model) viewSearching() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("gammond"))
	sb.WriteString("\n\n")
	sb.WriteString("Searching for an opponent...\n\n")
	sb.WriteString(InfoStyle.Render("Esc to cancel • Ctrl+C quit"))
	return sb.String()
}

func (m *Model) viewGame() string {
	boardPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Padding(0, 1).
		Render(RenderBoard(m.board, m.borneWhite, m.borneBlack))

	status := m.statusLine()

	logHeight := m.height - lipgloss.Height(boardPane) - 6
	if logHeight < 3 {
		logHeight = 3
	}
	logWidth := m.width - 4
	if logWidth < 20 {
		logWidth = 20
	}
	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight
	if !m.initialized {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Render(m.logViewport.View())

	var bottom string
	if m.screen == screenOver {
		bottom = m.resultText + "\n" + InfoStyle.Render("Enter to return to the lobby")
	} else {
		bottom = m.input.View() + "\n" + InfoStyle.Render("roll • <from> <to> • undo • done • resign • Ctrl+C quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left, boardPane, status, logPane, bottom)
}

func (m *Model) statusLine() string {
	var parts []string
	if m.opponent != "" {
		parts = append(parts, "vs "+m.opponent)
	}
	if m.mySign != 0 {
		parts = append(parts, "playing "+signName(m.mySign))
	}
	if len(m.dice) > 0 {
		parts = append(parts, DiceStyle.Render(fmt.Sprintf("dice %v", m.dice)))
	}
	if m.myTurn {
		parts = append(parts, SuccessStyle.Render("your turn"))
	}
	if m.canUndo {
		parts = append(parts, "undo available")
	}
	return " " + strings.Join(parts, "  ")
}

func signName(sign int) string {
	if sign == board.White {
		return "white"
	}
	if sign == board.Black {
		return "black"
	}
	return "?"
}

func unmarshal(msg *server.Message, v any) bool {
	if len(msg.Payload) == 0 {
		return false
	}
	return json.Unmarshal(msg.Payload, v) == nil
}

func messageOf(msg *server.Message) string {
	var data game.MessagePayload
	if unmarshal(msg, &data) && data.Message != "" {
		return data.Message
	}
	return msg.Event
}

func profileName(v any) string {
	if m, ok := v.(map[string]any); ok {
		if s, ok := m["username"].(string); ok {
			return s
		}
	}
	return ""
}

// RunConfig carries everything Run needs to start the client.
type RunConfig struct {
	ServerURL string
	Token     string
	Username  string
	Profile   *store.Profile
	Logger    *log.Logger
}

// Run connects to the server and drives the terminal UI until the player
// quits or the connection drops.
func Run(cfg RunConfig) error {
	c := client.NewClient(cfg.ServerURL, cfg.Token, cfg.Logger)
	if err := c.Connect(); err != nil {
		return err
	}
	defer func() { _ = c.Disconnect() }()

	model := NewModel(c, cfg.Username, cfg.Profile, cfg.Logger)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Server events and connection loss feed the update loop.
	c.AddAnyHandler(func(msg *server.Message) {
		p.Send(ServerEventMsg{Message: msg})
	})
	go func() {
		<-c.Done()
		p.Send(ConnClosedMsg{})
	}()

	// Restore any game the player was seated in before showing the lobby.
	if err := c.ReadyForSync(); err != nil {
		return err
	}

	_, err := p.Run()
	return err
}
