package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/OCharnyshevich/voxelsrv/internal/server/config"
	"github.com/OCharnyshevich/voxelsrv/internal/server/packet"
	"github.com/OCharnyshevich/voxelsrv/internal/server/player"
	"github.com/OCharnyshevich/voxelsrv/internal/server/world"
	"github.com/OCharnyshevich/voxelsrv/pkg/protocol"
)

const (
	loginTimeout = 10 * time.Second
	writeTimeout = 5 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second

	maxMessageSize = 64 * 1024
	outboxSize     = 512
)

// ErrSlowConsumer is returned by Send when the connection's outbox is full.
// The connection is closed when it happens.
var ErrSlowConsumer = errors.New("client outbox full")

// Actions receives validated player actions. The stream scheduler
// implements it.
type Actions interface {
	Move(ctx context.Context, playerID string, pos player.Position) error
	BreakBlock(ctx context.Context, playerID string, pos world.BlockPos) error
	PlaceBlock(ctx context.Context, playerID string, pos world.BlockPos, id uint16) error
}

// Server accepts websocket clients.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	world    *world.World
	players  *player.Manager
	actions  Actions
	codec    *protocol.Codec
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*Connection]struct{}
}

// NewServer creates a Server.
func NewServer(cfg *config.Config, log *slog.Logger, w *world.World, players *player.Manager, actions Actions) *Server {
	return &Server{
		cfg:     cfg,
		log:     log.With("component", "conn"),
		world:   w,
		players: players,
		actions: actions,
		codec:   packet.NewCodec(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*Connection]struct{}),
	}
}

// Handler upgrades requests and runs one Connection per client.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Debug("upgrade failed", "addr", r.RemoteAddr, "error", err)
			return
		}
		c := NewConnection(r.Context(), ws, s)
		s.track(c, true)
		defer s.track(c, false)
		c.Handle()
	}
}

func (s *Server) track(c *Connection, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

// Shutdown closes every open connection. http.Server.Shutdown does not
// cover hijacked websocket connections.
func (s *Server) Shutdown() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	if len(conns) > 0 {
		s.log.Info("closed client connections", "count", len(conns))
	}
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Connection manages a single client from login to disconnect.
type Connection struct {
	ws     *websocket.Conn
	srv    *Server
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	out       chan []byte
	closeOnce sync.Once

	self    *player.Player
	limiter *rate.Limiter
}

// NewConnection wraps an upgraded websocket.
func NewConnection(ctx context.Context, ws *websocket.Conn, srv *Server) *Connection {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	limit := rate.Inf
	burst := 0
	if srv.cfg.InboundRate > 0 {
		limit = rate.Limit(srv.cfg.InboundRate)
		burst = max(1, int(srv.cfg.InboundRate))
	}
	return &Connection{
		ws:      ws,
		srv:     srv,
		log:     srv.log.With("addr", ws.RemoteAddr().String()),
		ctx:     ctx,
		cancel:  cancel,
		out:     make(chan []byte, outboxSize),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Handle runs the connection lifecycle. It logs the client in, then reads
// messages and dispatches them until the connection closes.
func (c *Connection) Handle() {
	defer func() {
		if c.self != nil {
			c.srv.players.Remove(c.self.ID)
			c.log.Info("player disconnected", "username", c.self.Username)
		}
		c.close()
	}()

	c.log.Debug("connection accepted")
	c.ws.SetReadLimit(maxMessageSize)

	if err := c.login(); err != nil {
		c.log.Info("login failed", "error", err)
		return
	}

	go c.writeLoop()

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("read failed", "error", err)
			}
			return
		}
		if err := c.handleMessage(msg); err != nil {
			c.log.Debug("message rejected", "error", err)
		}
		if c.ctx.Err() != nil {
			return
		}
	}
}

// Send queues m for the writer goroutine. It never blocks: a client that
// cannot keep up is disconnected.
func (c *Connection) Send(m protocol.Message) error {
	if c.ctx.Err() != nil {
		return c.ctx.Err()
	}
	b, err := protocol.Marshal(m)
	if err != nil {
		return err
	}
	select {
	case c.out <- b:
		return nil
	default:
		c.log.Warn("outbox full, dropping client")
		c.close()
		return ErrSlowConsumer
	}
}

func (c *Connection) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case b := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Debug("write failed", "error", err)
				c.close()
				return
			}
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.close()
				return
			}
		}
	}
}

// writeDirect writes m synchronously. It is only used before the writer
// goroutine starts.
func (c *Connection) writeDirect(m protocol.Message) error {
	b, err := protocol.Marshal(m)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", m.MessageType(), err)
	}
	return nil
}

// kick tells the client why it is being dropped and closes the socket.
func (c *Connection) kick(reason string) {
	c.log.Info("kicking client", "reason", reason)
	_ = c.writeDirect(packet.PlayerKick{Reason: reason})
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.ws.Close()
	})
}
