package app

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrPinNotFound  = errors.New("pin not found")
	ErrUserNotFound = errors.New("user not found")
	ErrNoPins       = errors.New("no pins found in room")
)
