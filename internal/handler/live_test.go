package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	"rideshare/internal/handler"
	"rideshare/internal/hub"
	"rideshare/internal/repository"
)

// stubRooms serves fixed rooms and runs onReread on the second lookup, which
// the live handler makes after registering the client.
type stubRooms struct {
	mu       sync.Mutex
	rooms    map[string]*domain.Room
	calls    int
	onReread func()
}

func (s *stubRooms) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	s.mu.Lock()
	s.calls++
	calls := s.calls
	room, ok := s.rooms[roomID]
	hook := s.onReread
	s.mu.Unlock()

	if !ok {
		return nil, repository.ErrNotFound
	}
	if calls == 2 && hook != nil {
		hook()
	}
	c := *room
	return &c, nil
}

func newLiveServer(t *testing.T, rooms *stubRooms) (*httptest.Server, chan<- domain.RoomEvent) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	events := make(chan domain.RoomEvent)
	h := hub.New(handler.EncodeRoomEvent)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx, events)
		close(stopped)
	}()

	r := gin.New()
	r.GET("/v1/rooms/:id/live", handler.NewLiveHandler(rooms, h, "*").Live)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-stopped
	})
	return srv, events
}

func liveURL(srv *httptest.Server, roomID string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/rooms/" + roomID + "/live"
}

func readLive(t *testing.T, conn *websocket.Conn) handler.LiveMessage {
	t.Helper()
	var msg handler.LiveMessage
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func liveRoom(version int64, participants ...string) *domain.Room {
	return &domain.Room{
		ID:             "room-1",
		Name:           "Evening ride",
		OwnerID:        "owner-1",
		ParticipantIDs: participants,
		StartPoint:     "VESIT Chembur",
		Destination:    "Dadar Station",
		PassengerLimit: 3,
		Status:         domain.RoomStatusOpen,
		CreatedAt:      time.Now(),
		Version:        version,
	}
}

func TestLive_UnknownRoomRejectedBeforeUpgrade(t *testing.T) {
	srv, _ := newLiveServer(t, &stubRooms{rooms: map[string]*domain.Room{}})

	conn, resp, err := websocket.DefaultDialer.Dial(liveURL(srv, "missing"), nil)
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLive_SnapshotFirstThenEvents(t *testing.T) {
	rooms := &stubRooms{rooms: map[string]*domain.Room{"room-1": liveRoom(1, "owner-1")}}
	srv, events := newLiveServer(t, rooms)

	// A join lands while the handler is reading the snapshot.
	joined := liveRoom(2, "owner-1", "rider-1")
	rooms.onReread = func() {
		events <- domain.RoomEvent{
			Type:       domain.RoomEventJoined,
			RoomID:     "room-1",
			ActorID:    "rider-1",
			OccurredAt: time.Now(),
			Room:       joined,
		}
	}

	conn, _, err := websocket.DefaultDialer.Dial(liveURL(srv, "room-1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	snapshot := readLive(t, conn)
	assert.Equal(t, "SNAPSHOT", snapshot.Type)
	require.NotNil(t, snapshot.Room)
	assert.Equal(t, int64(1), snapshot.Room.Version)
	assert.Equal(t, []string{"owner-1"}, snapshot.Room.ParticipantIDs)

	event := readLive(t, conn)
	assert.Equal(t, "JOINED", event.Type)
	assert.Equal(t, "rider-1", event.ActorID)
	require.NotNil(t, event.Room)
	assert.Equal(t, int64(2), event.Room.Version)
	assert.Equal(t, 2, event.Room.Occupancy)

	events <- domain.RoomEvent{Type: domain.RoomEventJoined, RoomID: "room-2", OccurredAt: time.Now()}
	events <- domain.RoomEvent{Type: domain.RoomEventCompleted, RoomID: "room-1", OccurredAt: time.Now()}
	next := readLive(t, conn)
	assert.Equal(t, "COMPLETED", next.Type, "events for other rooms are not delivered")
}
