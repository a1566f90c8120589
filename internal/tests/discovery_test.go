package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// 3. DISCOVERY
// ──────────────────────────────────────────────

func newDiscovery(rooms *MockRoomRepository, locations *MockLocationStore) *service.DiscoveryService {
	svc := service.NewDiscoveryService(rooms, locations, 5)
	svc.SetClock(fixedClock)
	return svc
}

func TestSearchRooms_FullRoomExcludedFromAvailable(t *testing.T) {
	t.Parallel()

	rooms := NewMockRoomRepository()
	rooms.AddRoom(openRoom("room-open", 3, "owner-1"))
	rooms.AddRoom(openRoom("room-full", 2, "owner-2", "rider-1"))

	svc := newDiscovery(rooms, nil)
	ctx := context.Background()

	available, err := svc.SearchRooms(ctx, service.SearchRoomsRequest{OnlyAvailable: true})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(available) != 1 || available[0].ID != "room-open" {
		t.Errorf("expected only room-open, got %v", roomIDs(available))
	}

	all, err := svc.SearchRooms(ctx, service.SearchRoomsRequest{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected both rooms without the availability filter, got %v", roomIDs(all))
	}
}

func TestSearchRooms_ExcludesExpiredAndClosed(t *testing.T) {
	t.Parallel()

	rooms := NewMockRoomRepository()
	rooms.AddRoom(openRoom("room-open", 3, "owner-1"))

	expired := openRoom("room-expired", 3, "owner-2")
	expired.ExpiresAt = testNow.Add(-time.Minute)
	rooms.AddRoom(expired)

	cancelled := openRoom("room-cancelled", 3, "owner-3")
	cancelled.Status = domain.RoomStatusCancelled
	rooms.AddRoom(cancelled)

	result, err := newDiscovery(rooms, nil).SearchRooms(context.Background(), service.SearchRoomsRequest{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(result) != 1 || result[0].ID != "room-open" {
		t.Errorf("expected only room-open, got %v", roomIDs(result))
	}
}

func TestSearchRooms_PrefixMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	rooms := NewMockRoomRepository()
	dadar := openRoom("room-dadar", 3, "owner-1")
	rooms.AddRoom(dadar)

	andheri := openRoom("room-andheri", 3, "owner-2")
	andheri.Destination = "Andheri West"
	rooms.AddRoom(andheri)

	result, err := newDiscovery(rooms, nil).SearchRooms(context.Background(), service.SearchRoomsRequest{
		StartPrefix:       "vesit",
		DestinationPrefix: " AND ",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(result) != 1 || result[0].ID != "room-andheri" {
		t.Errorf("expected only room-andheri, got %v", roomIDs(result))
	}
}

func TestSearchRooms_EmptyResultIsNotNil(t *testing.T) {
	t.Parallel()

	result, err := newDiscovery(NewMockRoomRepository(), nil).SearchRooms(context.Background(), service.SearchRoomsRequest{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestNearbyRooms_ClosestFirstAndDropsStale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rooms := NewMockRoomRepository()
	locations := NewMockLocationStore()

	near := openRoom("room-near", 3, "owner-1")
	far := openRoom("room-far", 3, "owner-2")
	stale := openRoom("room-stale", 3, "owner-3")
	stale.Status = domain.RoomStatusCompleted
	for _, r := range []*domain.Room{near, far, stale} {
		rooms.AddRoom(r)
		_ = locations.AddRoom(ctx, r.ID, 19.04, 72.88)
	}
	locations.Distances["room-near"] = 0.4
	locations.Distances["room-far"] = 3.2
	locations.Distances["room-stale"] = 1.0

	result, err := newDiscovery(rooms, locations).NearbyRooms(ctx, service.NearbyRoomsRequest{Lat: 19.04, Lng: 72.88})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(result))
	}
	if result[0].Room.ID != "room-near" || result[1].Room.ID != "room-far" {
		t.Errorf("expected near then far, got %s, %s", result[0].Room.ID, result[1].Room.ID)
	}
	if result[0].DistanceKm != 0.4 {
		t.Errorf("expected distance 0.4, got %v", result[0].DistanceKm)
	}
	if locations.Has("room-stale") {
		t.Error("expected closed room to be dropped from the geo index")
	}
}

func TestNearbyRooms_OnlyAvailableSkipsFullRooms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rooms := NewMockRoomRepository()
	locations := NewMockLocationStore()

	full := openRoom("room-full", 2, "owner-1", "rider-1")
	rooms.AddRoom(full)
	_ = locations.AddRoom(ctx, full.ID, 19.04, 72.88)

	result, err := newDiscovery(rooms, locations).NearbyRooms(ctx, service.NearbyRoomsRequest{
		Lat:           19.04,
		Lng:           72.88,
		OnlyAvailable: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected no rooms, got %d", len(result))
	}
	if !locations.Has(full.ID) {
		t.Error("a full but open room must stay indexed")
	}
}

func TestNearbyRooms_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := newDiscovery(NewMockRoomRepository(), NewMockLocationStore())
	ctx := context.Background()

	testCases := []struct {
		name    string
		req     service.NearbyRoomsRequest
		wantErr error
	}{
		{"latitude too high", service.NearbyRoomsRequest{Lat: 91, Lng: 72}, service.ErrInvalidLocation},
		{"longitude too low", service.NearbyRoomsRequest{Lat: 19, Lng: -181}, service.ErrInvalidLocation},
		{"negative radius", service.NearbyRoomsRequest{Lat: 19, Lng: 72, RadiusKm: -1}, service.ErrInvalidRadius},
		{"radius too large", service.NearbyRoomsRequest{Lat: 19, Lng: 72, RadiusKm: 51}, service.ErrInvalidRadius},
	}
	for _, tc := range testCases {
		if _, err := svc.NearbyRooms(ctx, tc.req); !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestNearbyRooms_WithoutIndex_Unavailable(t *testing.T) {
	t.Parallel()

	_, err := newDiscovery(NewMockRoomRepository(), nil).NearbyRooms(context.Background(), service.NearbyRoomsRequest{Lat: 19, Lng: 72})
	if !errors.Is(err, service.ErrNearbyUnavailable) {
		t.Errorf("expected ErrNearbyUnavailable, got %v", err)
	}
}

func TestMyRooms_IncludesOwnedJoinedAndClosed(t *testing.T) {
	t.Parallel()

	rooms := NewMockRoomRepository()
	rooms.AddRoom(openRoom("room-owned", 3, "rider-1"))
	rooms.AddRoom(openRoom("room-joined", 3, "owner-1", "rider-1"))
	closed := openRoom("room-closed", 3, "owner-2", "rider-1")
	closed.Status = domain.RoomStatusExpired
	rooms.AddRoom(closed)
	rooms.AddRoom(openRoom("room-other", 3, "owner-3"))

	result, err := newDiscovery(rooms, nil).MyRooms(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("expected 3 rooms, got %v", roomIDs(result))
	}
}

func roomIDs(rooms []*domain.Room) []string {
	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	return ids
}
