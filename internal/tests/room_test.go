package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// 1. ROOM CREATION
// ──────────────────────────────────────────────

func TestRoomCreation_ValidInput_Succeeds(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := f.createRoom(t, 3)

	if room.ID == "" {
		t.Error("expected room ID to be set")
	}
	if room.Status != domain.RoomStatusOpen {
		t.Errorf("expected status OPEN, got %s", room.Status)
	}
	if room.OwnerName != "Asha Rao" {
		t.Errorf("expected owner name Asha Rao, got %q", room.OwnerName)
	}
	if len(room.ParticipantIDs) != 1 || room.ParticipantIDs[0] != "owner-1" {
		t.Errorf("expected owner as only participant, got %v", room.ParticipantIDs)
	}
	if !room.ExpiresAt.Equal(testNow.Add(60 * time.Minute)) {
		t.Errorf("expected default expiry, got %v", room.ExpiresAt)
	}

	stored := f.rooms.Room(room.ID)
	if stored == nil {
		t.Fatal("expected room to be persisted")
	}
	if stored.PassengerLimit != 3 {
		t.Errorf("expected passenger limit 3, got %d", stored.PassengerLimit)
	}
}

func TestRoomCreation_CreateThenFetch_ReturnsSameRoom(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	created := f.createRoom(t, 4)

	fetched, err := f.service.GetRoom(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if fetched.ID != created.ID || fetched.Name != created.Name || fetched.Destination != created.Destination {
		t.Errorf("fetched room differs: %+v vs %+v", fetched, created)
	}
	if !f.cache.HasRoom(created.ID) {
		t.Error("expected room to be cached after fetch")
	}
}

func TestRoomCreation_GeocodesAndIndexesStartPoint(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := f.createRoom(t, 2)

	if room.StartCoords == nil || room.DestCoords == nil {
		t.Fatal("expected both points to be geocoded")
	}
	if room.StartCoords.Lat != 19.0454 {
		t.Errorf("unexpected start latitude %v", room.StartCoords.Lat)
	}
	if !f.locations.Has(room.ID) {
		t.Error("expected room start point to be indexed")
	}
}

func TestRoomCreation_UnknownAddress_StillCreatesRoom(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room, err := f.service.CreateRoom(context.Background(), service.CreateRoomRequest{
		OwnerID:        "owner-1",
		StartPoint:     "Somewhere unmapped",
		Destination:    "Dadar Station",
		PassengerLimit: 2,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if room.StartCoords != nil {
		t.Error("expected no start coordinates")
	}
	if f.locations.Has(room.ID) {
		t.Error("room without coordinates must not be indexed")
	}
}

func TestRoomCreation_PublishesCreatedEvent(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := f.createRoom(t, 2)

	events := f.events.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != domain.RoomEventCreated || events[0].RoomID != room.ID {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestRoomCreation_DefaultName(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room, err := f.service.CreateRoom(context.Background(), service.CreateRoomRequest{
		OwnerID:        "owner-1",
		StartPoint:     "VESIT Chembur",
		Destination:    "  Dadar Station ",
		PassengerLimit: 2,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if room.Name != "Ride to Dadar Station" {
		t.Errorf("expected default name, got %q", room.Name)
	}
}

func TestRoomCreation_InvalidInput_Rejected(t *testing.T) {
	t.Parallel()

	valid := service.CreateRoomRequest{
		OwnerID:        "owner-1",
		Name:           "Ride",
		StartPoint:     "VESIT Chembur",
		Destination:    "Dadar Station",
		PassengerLimit: 3,
	}

	testCases := []struct {
		name    string
		mutate  func(r *service.CreateRoomRequest)
		wantErr error
	}{
		{"missing owner", func(r *service.CreateRoomRequest) { r.OwnerID = "" }, service.ErrInvalidUserID},
		{"blank start point", func(r *service.CreateRoomRequest) { r.StartPoint = "   " }, service.ErrInvalidStartPoint},
		{"blank destination", func(r *service.CreateRoomRequest) { r.Destination = "" }, service.ErrInvalidDestination},
		{"name too long", func(r *service.CreateRoomRequest) { r.Name = strings.Repeat("x", 101) }, service.ErrInvalidRoomName},
		{"limit below two", func(r *service.CreateRoomRequest) { r.PassengerLimit = 1 }, service.ErrInvalidPassengerLimit},
		{"limit above four", func(r *service.CreateRoomRequest) { r.PassengerLimit = 5 }, service.ErrInvalidPassengerLimit},
		{"negative expiry", func(r *service.CreateRoomRequest) { r.ExpiresInMinutes = -5 }, service.ErrInvalidExpiry},
		{"expiry beyond max", func(r *service.CreateRoomRequest) { r.ExpiresInMinutes = 25 * 60 }, service.ErrInvalidExpiry},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newRoomFixture(t)
			req := valid
			tc.mutate(&req)

			_, err := f.service.CreateRoom(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if f.rooms.CreateCallCount != 0 {
				t.Error("repository must not be called for invalid input")
			}
		})
	}
}

func TestRoomCreation_CustomExpiry(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room, err := f.service.CreateRoom(context.Background(), service.CreateRoomRequest{
		OwnerID:          "owner-1",
		StartPoint:       "VESIT Chembur",
		Destination:      "Dadar Station",
		PassengerLimit:   2,
		ExpiresInMinutes: 15,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := room.MinutesRemaining(testNow); got != 15 {
		t.Errorf("expected 15 minutes remaining, got %d", got)
	}
}

func TestRoomCreation_UnknownOwner_Fails(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	_, err := f.service.CreateRoom(context.Background(), service.CreateRoomRequest{
		OwnerID:        "ghost",
		StartPoint:     "VESIT Chembur",
		Destination:    "Dadar Station",
		PassengerLimit: 2,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	if _, err := f.service.GetRoom(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.service.GetRoom(context.Background(), ""); !errors.Is(err, service.ErrInvalidRoomID) {
		t.Errorf("expected ErrInvalidRoomID, got %v", err)
	}
}

func TestListParticipants_OwnerFirst(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := f.createRoom(t, 4)
	ctx := context.Background()

	for _, id := range []string{"rider-2", "rider-1"} {
		if _, err := f.service.JoinRoom(ctx, room.ID, id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}

	users, err := f.service.ListParticipants(ctx, room.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	want := []string{"owner-1", "rider-2", "rider-1"}
	if len(users) != len(want) {
		t.Fatalf("expected %d participants, got %d", len(want), len(users))
	}
	for i, id := range want {
		if users[i].ID != id {
			t.Errorf("participant %d: expected %s, got %s", i, id, users[i].ID)
		}
	}
}
