// Package apptest holds test doubles shared by the service and transport
// tests. MemStore mirrors the persistence gateway contract in memory,
// including the vote-toggle invariant and not-found sentinels.
package apptest

import (
	"context"
	"math"
	"sync"

	"github.com/yhkiel05/team-map/internal/domain"
	"github.com/yhkiel05/team-map/internal/store"
)

type MemStore struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*domain.Room
	pins  map[domain.PinID]*domain.Pin
	users map[domain.UserID]*domain.User
}

func NewMemStore() *MemStore {
	return &MemStore{
		rooms: make(map[domain.RoomID]*domain.Room),
		pins:  make(map[domain.PinID]*domain.Pin),
		users: make(map[domain.UserID]*domain.User),
	}
}

func (m *MemStore) InsertRoom(_ context.Context, room *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *room
	cp.Members = append([]domain.UserID{}, room.Members...)
	m.rooms[room.ID] = &cp
	return nil
}

func (m *MemStore) FindRoom(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *room
	cp.Members = append([]domain.UserID{}, room.Members...)
	return &cp, nil
}

func (m *MemStore) ListActiveRooms(_ context.Context) ([]domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Room{}
	for _, room := range m.rooms {
		if room.IsActive {
			out = append(out, *room)
		}
	}
	return out, nil
}

func (m *MemStore) AddRoomMember(_ context.Context, roomID domain.RoomID, userID domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return store.ErrNotFound
	}
	for _, member := range room.Members {
		if member == userID {
			return nil
		}
	}
	room.Members = append(room.Members, userID)
	return nil
}

func (m *MemStore) DeactivateRoom(_ context.Context, roomID domain.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return store.ErrNotFound
	}
	room.IsActive = false
	return nil
}

func (m *MemStore) InsertPin(_ context.Context, pin *domain.Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pin
	cp.VotedBy = append([]domain.UserID{}, pin.VotedBy...)
	m.pins[pin.ID] = &cp
	return nil
}

func (m *MemStore) FindPin(_ context.Context, id domain.PinID) (*domain.Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pin, ok := m.pins[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *pin
	cp.VotedBy = append([]domain.UserID{}, pin.VotedBy...)
	return &cp, nil
}

func (m *MemStore) PinsInRoom(_ context.Context, roomID domain.RoomID) ([]domain.Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Pin{}
	for _, pin := range m.pins {
		if pin.RoomID == roomID {
			out = append(out, *pin)
		}
	}
	return out, nil
}

func (m *MemStore) PinsNear(_ context.Context, longitude, latitude float64, maxMeters int) ([]domain.Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Pin{}
	for _, pin := range m.pins {
		if approxMeters(longitude, latitude, pin.Location.Longitude(), pin.Location.Latitude()) <= float64(maxMeters) {
			out = append(out, *pin)
		}
	}
	return out, nil
}

func (m *MemStore) DeletePin(_ context.Context, id domain.PinID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pins[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.pins, id)
	return nil
}

func (m *MemStore) ToggleVote(_ context.Context, pinID domain.PinID, userID domain.UserID) (domain.VoteAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pin, ok := m.pins[pinID]
	if !ok {
		return "", store.ErrNotFound
	}
	for i, voter := range pin.VotedBy {
		if voter == userID {
			pin.VotedBy = append(pin.VotedBy[:i], pin.VotedBy[i+1:]...)
			pin.Votes = len(pin.VotedBy)
			return domain.VoteRemoved, nil
		}
	}
	pin.VotedBy = append(pin.VotedBy, userID)
	pin.Votes = len(pin.VotedBy)
	return domain.VoteAdded, nil
}

func (m *MemStore) Centroid(_ context.Context, roomID domain.RoomID) (*domain.Centroid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sumLng, sumLat float64
	count := 0
	for _, pin := range m.pins {
		if pin.RoomID == roomID {
			sumLng += pin.Location.Longitude()
			sumLat += pin.Location.Latitude()
			count++
		}
	}
	if count == 0 {
		return nil, store.ErrNotFound
	}
	return &domain.Centroid{
		Longitude: sumLng / float64(count),
		Latitude:  sumLat / float64(count),
		Type:      "centroid",
	}, nil
}

func (m *MemStore) InsertUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemStore) FindUser(_ context.Context, id domain.UserID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// approxMeters is an equirectangular approximation, plenty for tests.
func approxMeters(lng1, lat1, lng2, lat2 float64) float64 {
	const earthRadius = 6371000.0
	rad := math.Pi / 180
	x := (lng2 - lng1) * rad * math.Cos((lat1+lat2)/2*rad)
	y := (lat2 - lat1) * rad
	return math.Sqrt(x*x+y*y) * earthRadius
}
