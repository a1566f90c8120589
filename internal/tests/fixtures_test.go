package tests

import (
	"context"
	"testing"
	"time"

	"rideshare/internal/config"
	"rideshare/internal/domain"
	"rideshare/internal/service"
)

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// roomFixture bundles a RoomService with its mocks.
type roomFixture struct {
	rooms     *MockRoomRepository
	users     *MockUserRepository
	locations *MockLocationStore
	cache     *MockRoomCache
	events    *MockEventPublisher
	geocoder  *MockGeocoder
	service   *service.RoomService
}

func newRoomFixture(t *testing.T) *roomFixture {
	t.Helper()

	f := &roomFixture{
		rooms:     NewMockRoomRepository(),
		users:     NewMockUserRepository(),
		locations: NewMockLocationStore(),
		cache:     NewMockRoomCache(),
		events:    NewMockEventPublisher(),
		geocoder:  NewMockGeocoder(),
	}
	f.geocoder.AddPlace("VESIT Chembur", 19.0454, 72.8891)
	f.geocoder.AddPlace("Dadar Station", 19.0178, 72.8478)

	for _, u := range []*domain.User{
		{ID: "owner-1", FirstName: "Asha", LastName: "Rao", Email: "asha@ves.ac.in", EmailVerified: true},
		{ID: "rider-1", FirstName: "Kabir", LastName: "Shah", Email: "kabir@ves.ac.in", EmailVerified: true},
		{ID: "rider-2", FirstName: "Meera", Email: "meera@ves.ac.in", EmailVerified: true},
		{ID: "rider-3", FirstName: "Dev", Email: "dev@ves.ac.in", EmailVerified: true},
	} {
		f.users.AddUser(u)
	}

	f.service = service.NewRoomService(service.RoomServiceDeps{
		RoomRepo:  f.rooms,
		UserRepo:  f.users,
		Geocoder:  f.geocoder,
		Locations: f.locations,
		Cache:     f.cache,
		Events:    f.events,
		Settings: config.RoomsConfig{
			DefaultExpiry: 60 * time.Minute,
			MaxExpiry:     24 * time.Hour,
		},
	})
	f.service.SetClock(fixedClock)
	return f
}

// createRoom creates a room owned by owner-1 from VESIT to Dadar.
func (f *roomFixture) createRoom(t *testing.T, limit int) *domain.Room {
	t.Helper()
	room, err := f.service.CreateRoom(context.Background(), service.CreateRoomRequest{
		OwnerID:        "owner-1",
		Name:           "Evening ride",
		StartPoint:     "VESIT Chembur",
		Destination:    "Dadar Station",
		PassengerLimit: limit,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

// openRoom builds an open room directly, bypassing the service.
func openRoom(id string, limit int, participants ...string) *domain.Room {
	return &domain.Room{
		ID:             id,
		Name:           "Ride " + id,
		OwnerID:        participants[0],
		OwnerName:      "Owner",
		ParticipantIDs: participants,
		StartPoint:     "VESIT Chembur",
		Destination:    "Dadar Station",
		PassengerLimit: limit,
		Status:         domain.RoomStatusOpen,
		ExpiresAt:      testNow.Add(time.Hour),
		CreatedAt:      testNow.Add(-time.Minute),
		Version:        1,
	}
}
