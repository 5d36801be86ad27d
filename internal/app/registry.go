package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/domain"
)

type SessionID string

// Sink is the transport end of one live session. TrySend must not block;
// a full or closed connection reports an error and the frame is dropped.
type Sink interface {
	TrySend(frame []byte) error
}

type roomEntry struct {
	mu      sync.RWMutex
	members map[SessionID]struct{}
}

// Registry tracks which sessions are currently subscribed to which rooms.
// It is process-local and deliberately not persisted: after a reconnect the
// client subscribes again. Room entries form an arena keyed by room id, each
// with its own lock, so fan-out in one room does not contend with another.
type Registry struct {
	mu       sync.RWMutex
	sessions map[SessionID]Sink
	rooms    map[domain.RoomID]*roomEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[SessionID]Sink),
		rooms:    make(map[domain.RoomID]*roomEntry),
	}
}

// Bind registers a session's transport. Rebinding the same id replaces the
// previous sink.
func (r *Registry) Bind(sid SessionID, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = sink
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

// Unbind drops the session's transport. Room membership is cleaned up
// separately via UnsubscribeAll.
func (r *Registry) Unbind(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
}

func (r *Registry) SessionSink(sid SessionID) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[sid]
	return sink, ok
}

// Subscribe adds the session to the room's live set. Idempotent.
func (r *Registry) Subscribe(sid SessionID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rooms[roomID]
	if !ok {
		entry = &roomEntry{members: make(map[SessionID]struct{})}
		r.rooms[roomID] = entry
	}
	entry.mu.Lock()
	entry.members[sid] = struct{}{}
	entry.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("subscribed")
}

// Unsubscribe removes the session from the room's live set. Removing a
// session that is not there is a no-op. Empty entries are pruned so the
// arena does not grow with dead rooms.
func (r *Registry) Unsubscribe(sid SessionID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rooms[roomID]
	if !ok {
		return
	}
	entry.mu.Lock()
	delete(entry.members, sid)
	empty := len(entry.members) == 0
	entry.mu.Unlock()
	if empty {
		delete(r.rooms, roomID)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("unsubscribed")
}

// UnsubscribeAll removes the session from every room it was in. Called on
// disconnect.
func (r *Registry) UnsubscribeAll(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID, entry := range r.rooms {
		entry.mu.Lock()
		delete(entry.members, sid)
		empty := len(entry.members) == 0
		entry.mu.Unlock()
		if empty {
			delete(r.rooms, roomID)
		}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unsubscribed from all rooms")
}

// MembersOf snapshots the sinks currently subscribed to the room. An empty
// room yields an empty slice, which is valid.
func (r *Registry) MembersOf(roomID domain.RoomID) []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	out := make([]Sink, 0, len(entry.members))
	for sid := range entry.members {
		if sink, bound := r.sessions[sid]; bound {
			out = append(out, sink)
		}
	}
	return out
}
