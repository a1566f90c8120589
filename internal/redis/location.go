package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RoomLocation represents an open room's start point.
type RoomLocation struct {
	RoomID     string
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// LocationStore indexes open rooms by start point in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// AddRoom stores a room's start point using GEOADD.
func (s *LocationStore) AddRoom(ctx context.Context, roomID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, roomLocationKey, &redis.GeoLocation{
		Name:      roomID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyRooms returns rooms starting within the given radius (in
// kilometers), closest first.
func (s *LocationStore) FindNearbyRooms(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]RoomLocation, error) {
	results, err := s.client.GeoSearchLocation(ctx, roomLocationKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]RoomLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, RoomLocation{
			RoomID:     r.Name,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}

	return locations, nil
}

// RemoveRoom removes a room from the geo index.
func (s *LocationStore) RemoveRoom(ctx context.Context, roomID string) error {
	return s.client.ZRem(ctx, roomLocationKey, roomID).Err()
}
