// Package live is the session gateway: it owns the websocket lifecycle, maps
// each connection to a session id and routes inbound events into the
// registry, broadcaster and mutation service.
package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/app"
	"github.com/yhkiel05/team-map/internal/config"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Registry *app.Registry
	Bcast    *app.Broadcaster
	Svc      *app.Service

	limiter    *EventLimiter
	readLimit  int64
	pingPeriod time.Duration
}

func NewController(cfg *config.Config, reg *app.Registry, bcast *app.Broadcaster, svc *app.Service) *Controller {
	return &Controller{
		Registry:   reg,
		Bcast:      bcast,
		Svc:        svc,
		limiter:    NewEventLimiter(cfg.EventRateLimit, cfg.EventRateWindow),
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the connection, binds a fresh session id and starts the
// pumps. Everything after this point is event-driven.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "live").Msg("ws upgrade")
		return
	}

	sid := app.SessionID(uuid.NewString())
	log.Info().Str("module", "live").Str("sid", string(sid)).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	ctl.Registry.Bind(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
