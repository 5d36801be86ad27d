package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yhkiel05/team-map/internal/domain"
)

func TestRegistry_SubscribeAndMembersOf(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	roomID := domain.RoomID("r1")
	sink := &captureSink{}

	// Given no session is connected
	req.Empty(reg.MembersOf(roomID))

	// When a session subscribes
	reg.Bind("s1", sink)
	reg.Subscribe("s1", roomID)

	// Then it receives broadcasts for the room
	req.Len(reg.MembersOf(roomID), 1)
}

func TestRegistry_SubscribeIsIdempotent(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Bind("s1", &captureSink{})

	reg.Subscribe("s1", "r1")
	reg.Subscribe("s1", "r1")

	req.Len(reg.MembersOf("r1"), 1)
}

func TestRegistry_UnsubscribeAbsentIsNoop(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Unsubscribe("ghost", "r1")
	req.Empty(reg.MembersOf("r1"))
}

func TestRegistry_UnsubscribeAllRemovesEverywhere(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Bind("s1", &captureSink{})
	reg.Bind("s2", &captureSink{})
	reg.Subscribe("s1", "r1")
	reg.Subscribe("s1", "r2")
	reg.Subscribe("s2", "r1")

	reg.UnsubscribeAll("s1")

	req.Len(reg.MembersOf("r1"), 1)
	req.Empty(reg.MembersOf("r2"))
}

func TestRegistry_MembersOfSkipsUnboundSessions(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Bind("s1", &captureSink{})
	reg.Subscribe("s1", "r1")

	reg.Unbind("s1")

	req.Empty(reg.MembersOf("r1"))
}
