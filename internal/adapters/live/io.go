package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/app"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, sid app.SessionID, c *wsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "live").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case frame, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "live").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "live").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("module", "live").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sid app.SessionID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "live").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Registry.UnsubscribeAll(sid)
		ctl.Registry.Unbind(sid)
		ctl.limiter.Forget(sid)
		cancel()
		c.Close()
	}()

	pongWait := ctl.pingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "live").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Error().Err(err).Str("module", "live").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleEvent(ctx, sid, c, data)
		}
	}
}

func (ctl *Controller) handleEvent(ctx context.Context, sid app.SessionID, c *wsConn, data []byte) {
	var env app.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "live").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Event {
	case app.EventJoinRoom:
		ctl.handleJoinRoom(ctx, sid, c, env.Data)
	case app.EventLeaveRoom:
		ctl.handleLeaveRoom(sid, c, env.Data)
	case app.EventPinCreated:
		ctl.handlePinCreated(ctx, sid, c, env.Data)
	case app.EventPinUpdated:
		ctl.handlePinUpdated(ctx, sid, c, env.Data)
	case app.EventPinDeleted:
		ctl.handlePinDeleted(ctx, sid, c, env.Data)
	case "ping":
		ctl.sendJSON(c, "pong", struct{}{})
	default:
		log.Warn().Str("module", "live").Str("event", env.Event).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c *wsConn, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "live").Msg("sendJSON marshal payload")
		return
	}
	frame, err := json.Marshal(app.Envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "live").Msg("sendJSON marshal envelope")
		return
	}
	_ = c.TrySend(frame)
}

func (ctl *Controller) sendError(c *wsConn, msg string) {
	ctl.sendJSON(c, "error", map[string]string{"error": msg})
}
