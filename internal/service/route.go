package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"rideshare/internal/domain"
	internalRedis "rideshare/internal/redis"
)

// RouteService computes the driving route of a room.
type RouteService struct {
	rooms    RoomGetter
	geocoder Geocoder
	router   RouteFinder
	cache    internalRedis.RoomCacheInterface
}

// NewRouteService creates a new RouteService. geocoder and router may be
// nil when maps integration is disabled.
func NewRouteService(rooms RoomGetter, geocoder Geocoder, router RouteFinder, cache internalRedis.RoomCacheInterface) *RouteService {
	return &RouteService{
		rooms:    rooms,
		geocoder: geocoder,
		router:   router,
		cache:    cache,
	}
}

// GetRoomRoute returns the route from the room's start point to its
// destination, using stored coordinates when the room has them.
func (s *RouteService) GetRoomRoute(ctx context.Context, roomID string) (*domain.Route, error) {
	if s.router == nil || s.geocoder == nil {
		return nil, ErrRouteUnavailable
	}

	if s.cache != nil {
		if cached, err := s.cache.GetRoute(ctx, roomID); err == nil && cached != nil {
			return cached, nil
		}
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	origin, dest := room.StartCoords, room.DestCoords
	if origin == nil || dest == nil {
		origin, dest, err = geocodePair(ctx, s.geocoder, room.StartPoint, room.Destination)
		if err != nil {
			return nil, err
		}
	}

	route, err := s.router.Route(ctx, *origin, *dest)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}

	if s.cache != nil {
		if err := s.cache.SetRoute(ctx, roomID, route); err != nil {
			slog.Debug("route cache write failed", "room_id", roomID, "error", err)
		}
	}
	return route, nil
}

// geocodePair resolves both addresses concurrently.
func geocodePair(ctx context.Context, geocoder Geocoder, start, dest string) (*domain.Coordinates, *domain.Coordinates, error) {
	var startCoords, destCoords *domain.Coordinates

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := geocoder.Geocode(gctx, start)
		if err != nil {
			return err
		}
		startCoords = c
		return nil
	})
	g.Go(func() error {
		c, err := geocoder.Geocode(gctx, dest)
		if err != nil {
			return err
		}
		destCoords = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return startCoords, destCoords, nil
}

// geocodeBestEffort resolves both addresses, returning nil for any that fail.
func geocodeBestEffort(ctx context.Context, geocoder Geocoder, start, dest string) (*domain.Coordinates, *domain.Coordinates) {
	var startCoords, destCoords *domain.Coordinates

	var g errgroup.Group
	g.Go(func() error {
		c, err := geocoder.Geocode(ctx, start)
		if err != nil {
			slog.Debug("geocode start point failed", "address", start, "error", err)
			return nil
		}
		startCoords = c
		return nil
	})
	g.Go(func() error {
		c, err := geocoder.Geocode(ctx, dest)
		if err != nil {
			slog.Debug("geocode destination failed", "address", dest, "error", err)
			return nil
		}
		destCoords = c
		return nil
	})
	_ = g.Wait()

	return startCoords, destCoords
}
