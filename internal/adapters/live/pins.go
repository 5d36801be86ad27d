package live

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/app"
	"github.com/yhkiel05/team-map/internal/domain"
)

// Live pin events are promoted to authoritative writes: they go through the
// mutation service like their REST counterparts, and the broadcaster is the
// only fan-out. A peer never sees a pin that was not persisted first.

func (ctl *Controller) handlePinCreated(ctx context.Context, sid app.SessionID, c *wsConn, data []byte) {
	if !ctl.limiter.Allow(sid) {
		ctl.sendError(c, "rate_limited")
		return
	}
	var p struct {
		RoomID      domain.RoomID `json:"room_id"`
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Longitude   float64       `json:"longitude"`
		Latitude    float64       `json:"latitude"`
		CreatedBy   domain.UserID `json:"created_by"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Err(err).Str("module", "live").Msg("bad pin_created payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if _, err := ctl.Svc.CreatePin(ctx, p.RoomID, p.Title, p.Description, p.Longitude, p.Latitude, p.CreatedBy); err != nil {
		ctl.replyMutationError(c, err)
	}
}

func (ctl *Controller) handlePinUpdated(ctx context.Context, sid app.SessionID, c *wsConn, data []byte) {
	if !ctl.limiter.Allow(sid) {
		ctl.sendError(c, "rate_limited")
		return
	}
	var p struct {
		PinID  domain.PinID  `json:"pin_id"`
		UserID domain.UserID `json:"user_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.PinID == "" || p.UserID == "" {
		log.Error().Err(err).Str("module", "live").Msg("bad pin_updated payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if _, _, err := ctl.Svc.ToggleVote(ctx, p.PinID, p.UserID); err != nil {
		ctl.replyMutationError(c, err)
	}
}

func (ctl *Controller) handlePinDeleted(ctx context.Context, sid app.SessionID, c *wsConn, data []byte) {
	if !ctl.limiter.Allow(sid) {
		ctl.sendError(c, "rate_limited")
		return
	}
	var p struct {
		PinID domain.PinID `json:"pin_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.PinID == "" {
		log.Error().Err(err).Str("module", "live").Msg("bad pin_deleted payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := ctl.Svc.DeletePin(ctx, p.PinID); err != nil {
		ctl.replyMutationError(c, err)
	}
}

// replyMutationError answers the sender only; store failures are never
// broadcast to the room.
func (ctl *Controller) replyMutationError(c *wsConn, err error) {
	switch {
	case errors.Is(err, app.ErrPinNotFound):
		ctl.sendError(c, "pin_not_found")
	case errors.Is(err, app.ErrRoomNotFound):
		ctl.sendError(c, "room_not_found")
	case errors.Is(err, domain.ErrPinTitleEmpty),
		errors.Is(err, domain.ErrPinTitleTooLong),
		errors.Is(err, domain.ErrLongitudeRange),
		errors.Is(err, domain.ErrLatitudeRange):
		ctl.sendError(c, "invalid_pin")
	default:
		log.Error().Err(err).Str("module", "live").Msg("mutation failed")
		ctl.sendError(c, "internal_error")
	}
}
