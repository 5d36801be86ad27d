package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const MaxRoomNameLen = 64

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
)

type RoomID string

// Room is the durable record of a collaboration space. Members is the
// historical list of everyone who ever joined; the live session set for
// broadcasting lives in the registry, not here.
type Room struct {
	ID          RoomID    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy   UserID    `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	Members     []UserID  `bson:"members" json:"members"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
}

// NewRoom makes the creator the sole initial member.
func NewRoom(name, description string, creator UserID) (*Room, error) {
	if len(name) == 0 {
		return nil, ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return nil, ErrRoomNameTooLong
	}
	return &Room{
		ID:          RoomID(uuid.NewString()),
		Name:        name,
		Description: description,
		CreatedBy:   creator,
		CreatedAt:   time.Now().UTC(),
		Members:     []UserID{creator},
		IsActive:    true,
	}, nil
}

func (r *Room) HasMember(id UserID) bool {
	return lo.Contains(r.Members, id)
}
