// Package server contains the WebSocket gateway, the game service façade
// and the supporting pieces between connections and game sessions: the
// session registry, the FIFO matchmaker, the paced notification queue, the
// bot worker pool and the HCL configuration.
package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/gammond/internal/auth"
	"github.com/lox/gammond/internal/game"
)

// Gateway accepts WebSocket connections on /ws, authenticates them with
// the token validator, and routes events between clients and the game
// service. It owns the sid → connection map every emit goes through.
type Gateway struct {
	upgrader  websocket.Upgrader
	validator auth.Validator
	service   *GameService
	logger    *log.Logger

	mu    sync.RWMutex
	conns map[string]*Connection

	ctx    context.Context
	cancel context.CancelFunc
}

// NewGateway creates a gateway. The game service is attached afterwards
// with SetService since the two reference each other.
func NewGateway(validator auth.Validator, logger *log.Logger) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// game clients connect from arbitrary origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		validator: validator,
		logger:    logger.WithPrefix("gateway"),
		conns:     make(map[string]*Connection),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetService attaches the game service connections dispatch into.
func (g *Gateway) SetService(svc *GameService) {
	g.service = svc
}

// UserBySID resolves a live connection to its authenticated username.
func (g *Gateway) UserBySID(sid string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.conns[sid]
	if !ok {
		return "", false
	}
	return c.username, true
}

// HandleWS upgrades the request, validates the token and registers the
// connection. A bad token gets auth_failed and an immediate close.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	identity, err := g.validator.Validate(r.Context(), tokenFromRequest(r))
	if err != nil || identity == nil {
		g.logger.Warn("rejected connection", "remote", r.RemoteAddr, "error", err)
		g.rejectConn(conn, "Invalid or expired token.")
		return
	}

	sid := uuid.NewString()
	client := newConnection(conn, sid, identity.Username, g, g.logger)

	g.mu.Lock()
	g.conns[sid] = client
	total := len(g.conns)
	g.mu.Unlock()

	g.logger.Info("client connected", "sid", sid, "username", identity.Username, "total", total)
	client.Start()

	// Push the player's own profile before any client-driven traffic.
	if profile := g.service.ProfileData(identity.Username); profile != nil {
		g.Emit(game.Notification{Event: EventProfileDataUpdate, Payload: profile, Recipient: sid})
	}

	go func() {
		<-client.ctx.Done()
		g.unregister(client)
	}()
}

// rejectConn writes auth_failed on a connection that never got pumps.
func (g *Gateway) rejectConn(conn *websocket.Conn, message string) {
	msg, err := NewMessage(EventAuthFailed, MessageData{Message: message})
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(msg)
	}
	_ = conn.Close()
}

// unregister runs once per connection when its context ends: drop it from
// the map, then let the service vacate the seat and cancel any search.
func (g *Gateway) unregister(c *Connection) {
	g.mu.Lock()
	if _, ok := g.conns[c.sid]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.conns, c.sid)
	total := len(g.conns)
	g.mu.Unlock()

	g.EmitAll(g.service.Disconnect(c.sid))
	_ = c.Close()
	g.logger.Info("client disconnected", "sid", c.sid, "username", c.username, "total", total)
}

// Emit delivers one notification to its recipient. Notifications for
// connections that are gone are dropped.
func (g *Gateway) Emit(n game.Notification) {
	g.mu.RLock()
	c, ok := g.conns[n.Recipient]
	g.mu.RUnlock()
	if !ok {
		g.logger.Debug("dropping notification for closed connection", "event", n.Event, "sid", n.Recipient)
		return
	}

	msg, err := NewMessage(n.Event, n.Payload)
	if err != nil {
		g.logger.Error("failed to encode notification", "event", n.Event, "error", err)
		return
	}
	if err := c.SendMessage(msg); err != nil {
		g.logger.Debug("failed to send notification", "event", n.Event, "sid", n.Recipient, "error", err)
	}
}

// EmitAll delivers notifications in order.
func (g *Gateway) EmitAll(notifications []game.Notification) {
	for _, n := range notifications {
		g.Emit(n)
	}
}

// Len returns the number of live connections.
func (g *Gateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

// Close drops every connection.
func (g *Gateway) Close() {
	g.cancel()
	g.mu.Lock()
	conns := make([]*Connection, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

// tokenFromRequest pulls the auth token from the query string or the
// Authorization header.
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
