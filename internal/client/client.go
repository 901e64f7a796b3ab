// Package client implements the WebSocket game client used by the terminal
// UI and by scripted play: connection management, event dispatch and typed
// senders for every client-to-server event.
package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/server" // reuse wire message types
)

// Client is a WebSocket client for one authenticated player.
type Client struct {
	serverURL string
	token     string
	conn      *websocket.Conn
	send      chan *server.Message
	receive   chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	gameID    string
	closeOnce sync.Once

	eventHandlers map[string][]EventHandler
	anyHandlers   []EventHandler
}

// EventHandler is a function that handles incoming events. Handlers run on
// the client's event loop so delivery order is preserved; a handler that
// blocks stalls all dispatch.
type EventHandler func(*server.Message)

// NewClient creates a client for serverURL authenticating with token.
func NewClient(serverURL, token string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		token:         token,
		send:          make(chan *server.Message, 256),
		receive:       make(chan *server.Message, 256),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[string][]EventHandler),
	}
}

// Connect establishes the WebSocket connection and starts the pumps.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	c.logger.Info("connecting", "host", u.Host)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventLoop()

	return nil
}

// Disconnect closes the connection and stops the pumps.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close()
			c.connected = false
		}
	})
	return nil
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Done is closed once the connection is gone, whichever side dropped it.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SendMessage queues msg for delivery.
func (c *Client) SendMessage(msg *server.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.cancel()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg server.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("connection error", "error", err)
			}
			return
		}

		c.logger.Debug("received", "event", msg.Event)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second) // ping interval
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// eventLoop dispatches received messages to handlers in arrival order.
func (c *Client) eventLoop() {
	for {
		select {
		case msg := <-c.receive:
			c.dispatch(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) dispatch(msg *server.Message) {
	c.mu.RLock()
	handlers := c.eventHandlers[msg.Event]
	anyHandlers := c.anyHandlers
	c.mu.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
	for _, handler := range anyHandlers {
		handler(msg)
	}
}

// AddEventHandler registers a handler for one event name.
func (c *Client) AddEventHandler(event string, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandlers[event] = append(c.eventHandlers[event], handler)
}

// AddAnyHandler registers a handler that sees every event.
func (c *Client) AddAnyHandler(handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anyHandlers = append(c.anyHandlers, handler)
}

// WaitForMessage waits for a specific event with timeout.
func (c *Client) WaitForMessage(event string, timeout time.Duration) (*server.Message, error) {
	responseChan := make(chan *server.Message, 1)

	c.AddEventHandler(event, func(msg *server.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	})

	select {
	case msg := <-responseChan:
		return msg, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for %s", event)
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

// SetGameID records the game the client is currently seated in.
func (c *Client) SetGameID(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
}

// GameID returns the current game id, empty when not in a game.
func (c *Client) GameID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

func (c *Client) sendEvent(event string, payload any) error {
	msg, err := server.NewMessage(event, payload)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// ReadyForSync asks the server to restore any game the player is seated in.
func (c *Client) ReadyForSync() error {
	return c.sendEvent(server.EventClientReadyForSync, struct{}{})
}

// StartPVE requests a new game against the bot at the given level.
func (c *Client) StartPVE(botLevel string, playerSign int) error {
	return c.sendEvent(server.EventStartPVE, server.StartPVEData{
		BotLevel:   botLevel,
		PlayerSign: playerSign,
	})
}

// ReadyForRoll signals the client finished rendering the setup and wants
// the opening roll.
func (c *Client) ReadyForRoll(gameID string) error {
	return c.sendEvent(server.EventClientReadyForRoll, server.ReadyForRollData{GameID: gameID})
}

// RequestRoll asks for dice on the player's turn.
func (c *Client) RequestRoll() error {
	return c.sendEvent(server.EventRequestPlayerRoll, struct{}{})
}

// SendStep submits one checker movement.
func (c *Client) SendStep(step board.Step) error {
	return c.sendEvent(server.EventSendPlayerStep, server.PlayerStepData{Step: step})
}

// RequestUndo reverts the last uncommitted step.
func (c *Client) RequestUndo() error {
	return c.sendEvent(server.EventRequestUndo, struct{}{})
}

// FinishTurn commits the played steps and passes the turn.
func (c *Client) FinishTurn() error {
	return c.sendEvent(server.EventSendTurnFinished, struct{}{})
}

// GiveUp resigns the current game.
func (c *Client) GiveUp() error {
	return c.sendEvent(server.EventPlayerGiveUp, struct{}{})
}

// FindMatch queues for a PvP game.
func (c *Client) FindMatch() error {
	return c.sendEvent(server.EventFindPVPMatch, struct{}{})
}

// CancelSearch leaves the PvP queue.
func (c *Client) CancelSearch() error {
	return c.sendEvent(server.EventCancelPVPSearch, struct{}{})
}

// Ready confirms the player saw the match and wants the opening roll.
func (c *Client) Ready() error {
	return c.sendEvent(server.EventPlayerReady, struct{}{})
}
