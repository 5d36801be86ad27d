package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const MaxPinTitleLen = 120

var (
	ErrPinTitleEmpty   = errors.New("pin title empty")
	ErrPinTitleTooLong = errors.New("pin title too long")
)

type PinID string

// VoteAction is the outcome of a vote toggle.
type VoteAction string

const (
	VoteAdded   VoteAction = "added"
	VoteRemoved VoteAction = "removed"
)

// Pin is a proposed location inside one room. Votes mirrors len(VotedBy);
// the store keeps both in step with a single atomic update.
type Pin struct {
	ID          PinID     `bson:"id" json:"id"`
	RoomID      RoomID    `bson:"room_id" json:"room_id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Location    GeoPoint  `bson:"location" json:"location"`
	CreatedBy   UserID    `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	Votes       int       `bson:"votes" json:"votes"`
	VotedBy     []UserID  `bson:"voted_by" json:"voted_by"`
}

func NewPin(roomID RoomID, title, description string, longitude, latitude float64, creator UserID) (*Pin, error) {
	if len(title) == 0 {
		return nil, ErrPinTitleEmpty
	}
	if len(title) > MaxPinTitleLen {
		return nil, ErrPinTitleTooLong
	}
	loc, err := NewGeoPoint(longitude, latitude)
	if err != nil {
		return nil, err
	}
	return &Pin{
		ID:          PinID(uuid.NewString()),
		RoomID:      roomID,
		Title:       title,
		Description: description,
		Location:    loc,
		CreatedBy:   creator,
		CreatedAt:   time.Now().UTC(),
		Votes:       0,
		VotedBy:     []UserID{},
	}, nil
}

func (p *Pin) HasVote(id UserID) bool {
	return lo.Contains(p.VotedBy, id)
}
