package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/domain"
	"github.com/yhkiel05/team-map/internal/store"
)

// Store is the persistence gateway the service writes through. Implemented
// by store.Store; tests substitute an in-memory fake.
type Store interface {
	InsertRoom(ctx context.Context, room *domain.Room) error
	FindRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	ListActiveRooms(ctx context.Context) ([]domain.Room, error)
	AddRoomMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error
	DeactivateRoom(ctx context.Context, roomID domain.RoomID) error

	InsertPin(ctx context.Context, pin *domain.Pin) error
	FindPin(ctx context.Context, id domain.PinID) (*domain.Pin, error)
	PinsInRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Pin, error)
	PinsNear(ctx context.Context, longitude, latitude float64, maxMeters int) ([]domain.Pin, error)
	DeletePin(ctx context.Context, id domain.PinID) error
	ToggleVote(ctx context.Context, pinID domain.PinID, userID domain.UserID) (domain.VoteAction, error)
	Centroid(ctx context.Context, roomID domain.RoomID) (*domain.Centroid, error)

	InsertUser(ctx context.Context, user *domain.User) error
	FindUser(ctx context.Context, id domain.UserID) (*domain.User, error)
}

// Service applies every state transition: durable write first, broadcast of
// the resulting state second. A write that lands but whose broadcast drops is
// still a successful operation; durability, not delivery, is the bar. Both
// the REST handlers and the live session gateway mutate through here, so
// there is exactly one authoritative write path.
type Service struct {
	store Store
	bcast *Broadcaster
}

func NewService(st Store, bcast *Broadcaster) *Service {
	return &Service{store: st, bcast: bcast}
}

// CreateRoom persists a new room with the creator as sole initial member.
// Rooms are not live-joined automatically, so nothing is broadcast.
func (s *Service) CreateRoom(ctx context.Context, name, description string, creator domain.UserID) (*domain.Room, error) {
	room, err := domain.NewRoom(name, description, creator)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	log.Info().Str("module", "app.service").Str("room", string(room.ID)).Str("creator", string(creator)).Msg("room created")
	return room, nil
}

// JoinRoom adds the user to the durable member list. Joining twice is not an
// error; the member set stays duplicate-free.
func (s *Service) JoinRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	if err := s.store.AddRoomMember(ctx, roomID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("add room member: %w", err)
	}
	log.Info().Str("module", "app.service").Str("room", string(roomID)).Str("user", string(userID)).Msg("user joined room")
	return nil
}

func (s *Service) Room(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	room, err := s.store.FindRoom(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

func (s *Service) ActiveRooms(ctx context.Context) ([]domain.Room, error) {
	return s.store.ListActiveRooms(ctx)
}

// DeactivateRoom soft-deletes: the room stops showing up in listings but its
// documents stay put.
func (s *Service) DeactivateRoom(ctx context.Context, roomID domain.RoomID) error {
	if err := s.store.DeactivateRoom(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("deactivate room: %w", err)
	}
	log.Info().Str("module", "app.service").Str("room", string(roomID)).Msg("room deactivated")
	return nil
}

// CreatePin persists a new pin with zero votes, then broadcasts pin_added
// with the full pin to the room.
func (s *Service) CreatePin(ctx context.Context, roomID domain.RoomID, title, description string, longitude, latitude float64, creator domain.UserID) (*domain.Pin, error) {
	pin, err := domain.NewPin(roomID, title, description, longitude, latitude, creator)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertPin(ctx, pin); err != nil {
		return nil, fmt.Errorf("insert pin: %w", err)
	}
	log.Info().Str("module", "app.service").Str("pin", string(pin.ID)).Str("room", string(roomID)).Msg("pin created")
	s.bcast.Broadcast(roomID, EventPinAdded, pin)
	return pin, nil
}

func (s *Service) RoomPins(ctx context.Context, roomID domain.RoomID) ([]domain.Pin, error) {
	return s.store.PinsInRoom(ctx, roomID)
}

func (s *Service) NearbyPins(ctx context.Context, longitude, latitude float64, maxMeters int) ([]domain.Pin, error) {
	return s.store.PinsNear(ctx, longitude, latitude, maxMeters)
}

// ToggleVote flips the user's vote on a pin, re-reads the updated pin and
// broadcasts pin_modified to the pin's room. The store serializes the voter
// set and counter in one atomic update per toggle.
func (s *Service) ToggleVote(ctx context.Context, pinID domain.PinID, userID domain.UserID) (domain.VoteAction, *domain.Pin, error) {
	action, err := s.store.ToggleVote(ctx, pinID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrPinNotFound
		}
		return "", nil, fmt.Errorf("toggle vote: %w", err)
	}
	pin, err := s.store.FindPin(ctx, pinID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrPinNotFound
		}
		return "", nil, fmt.Errorf("reload pin: %w", err)
	}
	log.Info().Str("module", "app.service").Str("pin", string(pinID)).Str("user", string(userID)).Str("action", string(action)).Int("votes", pin.Votes).Msg("vote toggled")
	s.bcast.Broadcast(pin.RoomID, EventPinModified, pin)
	return action, pin, nil
}

// DeletePin removes the pin and broadcasts pin_removed with its id.
func (s *Service) DeletePin(ctx context.Context, pinID domain.PinID) error {
	pin, err := s.store.FindPin(ctx, pinID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPinNotFound
		}
		return fmt.Errorf("find pin: %w", err)
	}
	if err := s.store.DeletePin(ctx, pinID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPinNotFound
		}
		return fmt.Errorf("delete pin: %w", err)
	}
	log.Info().Str("module", "app.service").Str("pin", string(pinID)).Str("room", string(pin.RoomID)).Msg("pin deleted")
	s.bcast.Broadcast(pin.RoomID, EventPinRemoved, map[string]any{"pin_id": pin.ID})
	return nil
}

// OptimalLocation returns the centroid of the room's pins. Pure read, no
// broadcast; ErrNoPins when the room has nothing to average.
func (s *Service) OptimalLocation(ctx context.Context, roomID domain.RoomID) (*domain.Centroid, error) {
	centroid, err := s.store.Centroid(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoPins
		}
		return nil, fmt.Errorf("centroid: %w", err)
	}
	return centroid, nil
}

func (s *Service) CreateUser(ctx context.Context, name, email, avatar string) (*domain.User, error) {
	user, err := domain.NewUser(name, email, avatar)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *Service) User(ctx context.Context, id domain.UserID) (*domain.User, error) {
	user, err := s.store.FindUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
