package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yhkiel05/team-map/internal/app/apptest"
	"github.com/yhkiel05/team-map/internal/domain"
)

type serviceFixture struct {
	store *apptest.MemStore
	reg   *Registry
	svc   *Service
	sink  *captureSink
}

// newServiceFixture wires a service against the in-memory store with one
// session subscribed to roomID, so broadcasts can be observed.
func newServiceFixture(t *testing.T, roomID domain.RoomID) *serviceFixture {
	t.Helper()
	st := apptest.NewMemStore()
	reg := NewRegistry()
	sink := &captureSink{}
	reg.Bind("observer", sink)
	if roomID != "" {
		reg.Subscribe("observer", roomID)
	}
	return &serviceFixture{
		store: st,
		reg:   reg,
		svc:   NewService(st, NewBroadcaster(reg)),
		sink:  sink,
	}
}

func TestService_CreateRoom_NoBroadcast(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "")
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, "dinner", "friday plans", "alice")
	req.NoError(err)

	// Creator is a durable member immediately.
	stored, err := f.svc.Room(ctx, room.ID)
	req.NoError(err)
	req.Equal([]domain.UserID{"alice"}, stored.Members)
	req.True(stored.IsActive)

	// Rooms are not live-joined automatically: nothing went out.
	req.Zero(f.sink.count())
}

func TestService_JoinRoom_IsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "")
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, "dinner", "", "alice")
	req.NoError(err)

	req.NoError(f.svc.JoinRoom(ctx, room.ID, "bob"))
	req.NoError(f.svc.JoinRoom(ctx, room.ID, "bob"))

	stored, err := f.svc.Room(ctx, room.ID)
	req.NoError(err)
	req.Equal([]domain.UserID{"alice", "bob"}, stored.Members)
}

func TestService_JoinRoom_UnknownRoom(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "")

	err := f.svc.JoinRoom(context.Background(), "missing", "bob")
	req.ErrorIs(err, ErrRoomNotFound)
}

func TestService_CreatePin_BroadcastsPersistedPin(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "r1")
	ctx := context.Background()

	pin, err := f.svc.CreatePin(ctx, "r1", "Central Park", "", -73.9654, 40.7829, "alice")
	req.NoError(err)
	req.Zero(pin.Votes)

	envs := f.sink.envelopes(t)
	req.Len(envs, 1)
	req.Equal(EventPinAdded, envs[0].Event)

	var sent domain.Pin
	req.NoError(json.Unmarshal(envs[0].Data, &sent))
	req.Equal(pin.ID, sent.ID)
	req.Equal(pin.Title, sent.Title)
	req.Equal(pin.Location, sent.Location)

	// The payload matches what was persisted, not just what was requested.
	stored, err := f.store.FindPin(ctx, pin.ID)
	req.NoError(err)
	req.Equal(stored.ID, sent.ID)
}

func TestService_ToggleVote_RoundTrip(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "r1")
	ctx := context.Background()

	pin, err := f.svc.CreatePin(ctx, "r1", "spot", "", 1, 2, "alice")
	req.NoError(err)

	action, updated, err := f.svc.ToggleVote(ctx, pin.ID, "bob")
	req.NoError(err)
	req.Equal(domain.VoteAdded, action)
	req.Equal(1, updated.Votes)
	req.Equal(len(updated.VotedBy), updated.Votes)
	req.True(updated.HasVote("bob"))

	action, updated, err = f.svc.ToggleVote(ctx, pin.ID, "bob")
	req.NoError(err)
	req.Equal(domain.VoteRemoved, action)
	req.Zero(updated.Votes)
	req.False(updated.HasVote("bob"))

	// pin_added plus two pin_modified broadcasts, in order.
	envs := f.sink.envelopes(t)
	req.Len(envs, 3)
	req.Equal(EventPinAdded, envs[0].Event)
	req.Equal(EventPinModified, envs[1].Event)
	req.Equal(EventPinModified, envs[2].Event)
}

func TestService_ToggleVote_UnknownPin(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "")

	_, _, err := f.svc.ToggleVote(context.Background(), "missing", "bob")
	req.ErrorIs(err, ErrPinNotFound)
}

func TestService_DeletePin_BroadcastsRemoval(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "r1")
	ctx := context.Background()

	pin, err := f.svc.CreatePin(ctx, "r1", "spot", "", 1, 2, "alice")
	req.NoError(err)

	req.NoError(f.svc.DeletePin(ctx, pin.ID))

	envs := f.sink.envelopes(t)
	req.Equal(EventPinRemoved, envs[len(envs)-1].Event)

	var data map[string]string
	req.NoError(json.Unmarshal(envs[len(envs)-1].Data, &data))
	req.Equal(string(pin.ID), data["pin_id"])

	req.ErrorIs(f.svc.DeletePin(ctx, pin.ID), ErrPinNotFound)
}

func TestService_OptimalLocation_MeanOfPins(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "")
	ctx := context.Background()

	_, err := f.svc.CreatePin(ctx, "r1", "downtown", "", -74.0060, 40.7128, "alice")
	req.NoError(err)
	_, err = f.svc.CreatePin(ctx, "r1", "midtown", "", -73.9851, 40.7589, "bob")
	req.NoError(err)

	centroid, err := f.svc.OptimalLocation(ctx, "r1")
	req.NoError(err)
	req.InDelta(-73.99555, centroid.Longitude, 1e-6)
	req.InDelta(40.73585, centroid.Latitude, 1e-6)
	req.Equal("centroid", centroid.Type)
}

func TestService_OptimalLocation_EmptyRoom(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "")

	_, err := f.svc.OptimalLocation(context.Background(), "empty")
	req.ErrorIs(err, ErrNoPins)
}

func TestService_Users(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t, "")
	ctx := context.Background()

	user, err := f.svc.CreateUser(ctx, "alice", "alice@example.com", "")
	req.NoError(err)

	found, err := f.svc.User(ctx, user.ID)
	req.NoError(err)
	req.Equal(user.Name, found.Name)

	_, err = f.svc.User(ctx, "missing")
	req.ErrorIs(err, ErrUserNotFound)
}
