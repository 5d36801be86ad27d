package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/yhkiel05/team-map/internal/app"
	"github.com/yhkiel05/team-map/internal/app/apptest"
	"github.com/yhkiel05/team-map/internal/config"
	"github.com/yhkiel05/team-map/internal/domain"
)

type gatewayFixture struct {
	store *apptest.MemStore
	srv   *httptest.Server
	url   string
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ReadLimit:       32768,
		PingPeriod:      54 * time.Second,
		EventRateLimit:  100,
		EventRateWindow: time.Second,
	}
	st := apptest.NewMemStore()
	reg := app.NewRegistry()
	bcast := app.NewBroadcaster(reg)
	svc := app.NewService(st, bcast)
	ctl := NewController(cfg, reg, bcast, svc)

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleWS(ctx, c) })

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return &gatewayFixture{
		store: st,
		srv:   srv,
		url:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (f *gatewayFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(app.Envelope{Event: event, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func recv(t *testing.T, conn *websocket.Conn) app.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var env app.Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

func seedPin(t *testing.T, f *gatewayFixture, roomID domain.RoomID, title string) *domain.Pin {
	t.Helper()
	pin, err := domain.NewPin(roomID, title, "", -73.9654, 40.7829, "alice")
	require.NoError(t, err)
	require.NoError(t, f.store.InsertPin(context.Background(), pin))
	return pin
}

func TestGateway_JoinRoomAnnouncesAndSendsPins(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	seedPin(t, f, "r1", "Central Park")

	conn := f.dial(t)
	send(t, conn, app.EventJoinRoom, map[string]string{"room_id": "r1", "user_name": "alice"})

	// The joiner is already subscribed when user_joined goes out, so it sees
	// its own announcement first, then the state push.
	env := recv(t, conn)
	req.Equal(app.EventUserJoined, env.Event)
	var joined map[string]string
	req.NoError(json.Unmarshal(env.Data, &joined))
	req.Equal("alice", joined["user_name"])

	env = recv(t, conn)
	req.Equal(app.EventPinsUpdate, env.Event)
	var update struct {
		Pins []domain.Pin `json:"pins"`
	}
	req.NoError(json.Unmarshal(env.Data, &update))
	req.Len(update.Pins, 1)
	req.Equal("Central Park", update.Pins[0].Title)
}

func TestGateway_PinCreatedIsPersistedAndBroadcast(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	conn := f.dial(t)
	send(t, conn, app.EventJoinRoom, map[string]string{"room_id": "r1", "user_name": "alice"})
	recv(t, conn) // user_joined
	recv(t, conn) // pins_update

	send(t, conn, app.EventPinCreated, map[string]any{
		"room_id":    "r1",
		"title":      "Ferry Building",
		"longitude":  -122.3937,
		"latitude":   37.7955,
		"created_by": "alice",
	})

	env := recv(t, conn)
	req.Equal(app.EventPinAdded, env.Event)
	var pin domain.Pin
	req.NoError(json.Unmarshal(env.Data, &pin))
	req.Equal("Ferry Building", pin.Title)

	// The event was promoted to an authoritative write.
	stored, err := f.store.FindPin(context.Background(), pin.ID)
	req.NoError(err)
	req.Equal("Ferry Building", stored.Title)
}

func TestGateway_VoteAndDeleteFanOutToPeers(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	pin := seedPin(t, f, "r1", "spot")

	alice := f.dial(t)
	send(t, alice, app.EventJoinRoom, map[string]string{"room_id": "r1", "user_name": "alice"})
	recv(t, alice) // user_joined
	recv(t, alice) // pins_update

	bob := f.dial(t)
	send(t, bob, app.EventJoinRoom, map[string]string{"room_id": "r1", "user_name": "bob"})
	recv(t, bob) // user_joined
	recv(t, bob) // pins_update

	env := recv(t, alice) // bob's arrival
	req.Equal(app.EventUserJoined, env.Event)

	send(t, bob, app.EventPinUpdated, map[string]string{"pin_id": string(pin.ID), "user_id": "bob"})

	env = recv(t, alice)
	req.Equal(app.EventPinModified, env.Event)
	var modified domain.Pin
	req.NoError(json.Unmarshal(env.Data, &modified))
	req.Equal(1, modified.Votes)
	req.Equal([]domain.UserID{"bob"}, modified.VotedBy)

	send(t, bob, app.EventPinDeleted, map[string]string{"pin_id": string(pin.ID)})

	env = recv(t, alice)
	req.Equal(app.EventPinRemoved, env.Event)
	var removed map[string]string
	req.NoError(json.Unmarshal(env.Data, &removed))
	req.Equal(string(pin.ID), removed["pin_id"])
}

func TestGateway_LeaveRoomStopsDelivery(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	alice := f.dial(t)
	send(t, alice, app.EventJoinRoom, map[string]string{"room_id": "r1", "user_name": "alice"})
	recv(t, alice)
	recv(t, alice)

	bob := f.dial(t)
	send(t, bob, app.EventJoinRoom, map[string]string{"room_id": "r1", "user_name": "bob"})
	recv(t, bob)
	recv(t, bob)
	recv(t, alice) // bob joined

	send(t, bob, app.EventLeaveRoom, map[string]string{"room_id": "r1", "user_name": "bob"})

	env := recv(t, alice)
	req.Equal(app.EventUserLeft, env.Event)

	// Bob is out of the room: a new pin must not reach him.
	send(t, alice, app.EventPinCreated, map[string]any{
		"room_id":    "r1",
		"title":      "after bob left",
		"longitude":  1.0,
		"latitude":   2.0,
		"created_by": "alice",
	})
	env = recv(t, alice)
	req.Equal(app.EventPinAdded, env.Event)

	req.NoError(bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond)))
	_, _, err := bob.ReadMessage()
	req.Error(err)
}

func TestGateway_UnknownPinAnsweredToSenderOnly(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	conn := f.dial(t)
	send(t, conn, app.EventJoinRoom, map[string]string{"room_id": "r1", "user_name": "alice"})
	recv(t, conn)
	recv(t, conn)

	send(t, conn, app.EventPinDeleted, map[string]string{"pin_id": "missing"})

	env := recv(t, conn)
	req.Equal("error", env.Event)
	var payload map[string]string
	req.NoError(json.Unmarshal(env.Data, &payload))
	req.Equal("pin_not_found", payload["error"])
}
