package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/gammond/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one authenticated WebSocket. Each connection carries a
// unique sid for the registry and the username the token resolved to.
type Connection struct {
	sid      string
	username string

	conn      *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	gateway   *Gateway
}

func newConnection(conn *websocket.Conn, sid, username string, gateway *Gateway, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		sid:      sid,
		username: username,
		conn:     conn,
		send:     make(chan *Message, 256),
		logger:   logger.WithPrefix("conn").With("sid", sid, "username", username),
		ctx:      ctx,
		cancel:   cancel,
		gateway:  gateway,
	}
}

// Start begins the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down exactly once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the write pump. A full buffer closes the
// connection rather than blocking the caller.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// send channel closed during shutdown
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// readPump reads events from the client and dispatches them. It runs the
// handlers inline, so per-connection event order is preserved.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage routes one inbound event to the game service and emits
// everything the service produced.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received event", "event", msg.Event)
	svc := c.gateway.service

	switch msg.Event {
	case EventClientReadyForSync:
		c.gateway.EmitAll(svc.ReadyForSync(c.sid))

	case EventStartPVE:
		var data StartPVEData
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			c.sendRejection("Failed to parse start_pve payload.")
			return
		}
		c.gateway.EmitAll(svc.StartPVE(c.sid, data))

	case EventClientReadyForRoll:
		var data ReadyForRollData
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			c.sendRejection("Failed to parse client_ready_for_roll payload.")
			return
		}
		c.gateway.EmitAll(svc.ReadyForRoll(c.sid, data.GameID))

	case EventRequestPlayerRoll:
		c.gateway.EmitAll(svc.Roll(c.sid))

	case EventSendPlayerStep:
		var data PlayerStepData
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			c.sendRejection("Failed to parse send_player_step payload.")
			return
		}
		c.gateway.EmitAll(svc.Step(c.sid, data.Step))

	case EventRequestUndo:
		c.gateway.EmitAll(svc.Undo(c.sid))

	case EventSendTurnFinished:
		c.gateway.EmitAll(svc.FinishTurn(c.sid))

	case EventPlayerGiveUp:
		c.gateway.EmitAll(svc.GiveUp(c.sid))

	case EventFindPVPMatch:
		c.gateway.EmitAll(svc.FindPVPMatch(c.sid))

	case EventCancelPVPSearch:
		c.gateway.EmitAll(svc.CancelSearch(c.sid))

	case EventPlayerReady:
		c.gateway.EmitAll(svc.Ready(c.sid))

	default:
		c.sendRejection("Unknown event: " + msg.Event)
	}
}

// sendRejection tells this client its last event was not applied.
func (c *Connection) sendRejection(message string) {
	msg, err := NewMessage(game.EventMoveRejection, game.MessagePayload{Message: message})
	if err != nil {
		c.logger.Error("failed to create rejection message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}
