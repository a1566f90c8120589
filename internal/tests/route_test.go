package tests

import (
	"context"
	"errors"
	"testing"

	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// 8. ROUTES
// ──────────────────────────────────────────────

func TestGetRoomRoute_UsesStoredCoordinatesAndCaches(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := f.createRoom(t, 3)
	router := &MockRouteFinder{}
	svc := service.NewRouteService(f.service, f.geocoder, router, f.cache)
	ctx := context.Background()

	geocodes := f.geocoder.CallCount
	route, err := svc.GetRoomRoute(ctx, room.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if route.Origin.Lat != 19.0454 || route.Destination.Lat != 19.0178 {
		t.Errorf("unexpected route endpoints %+v -> %+v", route.Origin, route.Destination)
	}
	if f.geocoder.CallCount != geocodes {
		t.Error("stored coordinates must not be geocoded again")
	}

	if _, err := svc.GetRoomRoute(ctx, room.ID); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if router.CallCount != 1 {
		t.Errorf("expected cached route on second call, router called %d times", router.CallCount)
	}
}

func TestGetRoomRoute_GeocodesMissingCoordinates(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	f.rooms.AddRoom(openRoom("room-raw", 3, "owner-1"))
	router := &MockRouteFinder{}
	svc := service.NewRouteService(f.service, f.geocoder, router, nil)

	route, err := svc.GetRoomRoute(context.Background(), "room-raw")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if route.DistanceMeters == 0 {
		t.Error("expected a route distance")
	}
	if f.geocoder.CallCount != 2 {
		t.Errorf("expected both points geocoded, got %d calls", f.geocoder.CallCount)
	}
}

func TestGetRoomRoute_UnknownPlaceFails(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := openRoom("room-lost", 3, "owner-1")
	room.Destination = "Atlantis"
	f.rooms.AddRoom(room)

	svc := service.NewRouteService(f.service, f.geocoder, &MockRouteFinder{}, nil)
	if _, err := svc.GetRoomRoute(context.Background(), room.ID); !errors.Is(err, ErrMockLocationNotFound) {
		t.Errorf("expected location error, got %v", err)
	}
}

func TestGetRoomRoute_DisabledMaps(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	svc := service.NewRouteService(f.service, nil, nil, nil)
	if _, err := svc.GetRoomRoute(context.Background(), "any"); !errors.Is(err, service.ErrRouteUnavailable) {
		t.Errorf("expected ErrRouteUnavailable, got %v", err)
	}
}

func TestGetRoomRoute_RouterErrorWrapped(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := f.createRoom(t, 2)
	noRoute := errors.New("no route")
	svc := service.NewRouteService(f.service, f.geocoder, &MockRouteFinder{Error: noRoute}, nil)

	_, err := svc.GetRoomRoute(context.Background(), room.ID)
	if !errors.Is(err, noRoute) {
		t.Errorf("expected wrapped router error, got %v", err)
	}
}
