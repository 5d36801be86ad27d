package app

// Live event names shared by the REST mutation path and the session gateway.
const (
	// outbound
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventPinsUpdate  = "pins_update"
	EventPinAdded    = "pin_added"
	EventPinModified = "pin_modified"
	EventPinRemoved  = "pin_removed"

	// inbound
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
	EventPinCreated = "pin_created"
	EventPinUpdated = "pin_updated"
	EventPinDeleted = "pin_deleted"
)
