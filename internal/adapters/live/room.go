package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/app"
	"github.com/yhkiel05/team-map/internal/domain"
)

type roomEventPayload struct {
	RoomID   domain.RoomID `json:"room_id"`
	UserName string        `json:"user_name,omitempty"`
}

// handleJoinRoom subscribes the session, tells the room, then pushes the
// current pin list to the newcomer so their map starts consistent.
func (ctl *Controller) handleJoinRoom(ctx context.Context, sid app.SessionID, c *wsConn, data []byte) {
	var p roomEventPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Err(err).Str("module", "live").Msg("bad join_room payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	name := p.UserName
	if name == "" {
		name = "Anonymous"
	}

	ctl.Registry.Subscribe(sid, p.RoomID)
	log.Info().Str("module", "live").Str("sid", string(sid)).Str("room", string(p.RoomID)).Str("name", name).Msg("join_room")

	ctl.Bcast.Broadcast(p.RoomID, app.EventUserJoined, map[string]string{
		"user_name": name,
		"message":   fmt.Sprintf("%s joined the room", name),
	})

	pins, err := ctl.Svc.RoomPins(ctx, p.RoomID)
	if err != nil {
		log.Error().Err(err).Str("module", "live").Str("room", string(p.RoomID)).Msg("load pins for join")
		ctl.sendError(c, "pins_unavailable")
		return
	}
	ctl.Bcast.BroadcastToSender(sid, app.EventPinsUpdate, map[string]any{"pins": pins})
}

func (ctl *Controller) handleLeaveRoom(sid app.SessionID, c *wsConn, data []byte) {
	var p roomEventPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Err(err).Str("module", "live").Msg("bad leave_room payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	name := p.UserName
	if name == "" {
		name = "Anonymous"
	}

	ctl.Registry.Unsubscribe(sid, p.RoomID)
	log.Info().Str("module", "live").Str("sid", string(sid)).Str("room", string(p.RoomID)).Msg("leave_room")

	ctl.Bcast.Broadcast(p.RoomID, app.EventUserLeft, map[string]string{
		"user_name": name,
		"message":   fmt.Sprintf("%s left the room", name),
	})
}
