package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/domain"
)

// Envelope is the wire shape of every live event, inbound and outbound.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Broadcaster fans an event out to every session subscribed to a room.
// Delivery is best-effort and fire-and-forget: a slow or closed sink drops
// the frame and never fails the caller. Per-room ordering holds because the
// fan-out loop is synchronous and each sink's queue is FIFO.
type Broadcaster struct {
	reg *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

func (b *Broadcaster) Broadcast(roomID domain.RoomID, event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Str("event", event).Msg("marshal envelope")
		return
	}
	for _, sink := range b.reg.MembersOf(roomID) {
		if err := sink.TrySend(frame); err != nil {
			log.Debug().Err(err).Str("module", "app.broadcaster").Str("room", string(roomID)).Str("event", event).Msg("dropped frame")
		}
	}
}

// BroadcastToSender delivers only to the originating session, used to push
// initial room state on join.
func (b *Broadcaster) BroadcastToSender(sid SessionID, event string, payload any) {
	sink, ok := b.reg.SessionSink(sid)
	if !ok {
		return
	}
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Str("event", event).Msg("marshal envelope")
		return
	}
	if err := sink.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "app.broadcaster").Str("sid", string(sid)).Str("event", event).Msg("dropped frame")
	}
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
