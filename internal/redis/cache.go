package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"rideshare/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	RoomCacheTTL  = 15 * time.Second // Membership changes overwrite explicitly
	RouteCacheTTL = 6 * time.Hour    // Start and destination never change
)

// setNewerRoom stores ARGV[1] unless the cached room has a higher version.
var setNewerRoom = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, rec = pcall(cjson.decode, cur)
	if ok and type(rec) == 'table' and tonumber(rec.version or 0) > tonumber(ARGV[2]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

type cachedRoute struct {
	OriginLat       float64 `json:"origin_lat"`
	OriginLng       float64 `json:"origin_lng"`
	DestinationLat  float64 `json:"destination_lat"`
	DestinationLng  float64 `json:"destination_lng"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Polyline        string  `json:"polyline"`
}

// GetRoom retrieves a room from cache. Returns nil on a cache miss.
func (s *CacheStore) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	data, err := s.client.Get(ctx, roomCachePrefix+roomID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var rec roomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// SetRoom stores a room in cache unless a newer version is already cached.
func (s *CacheStore) SetRoom(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(toRoomRecord(room))
	if err != nil {
		return err
	}
	keys := []string{roomCachePrefix + room.ID}
	return setNewerRoom.Run(ctx, s.client, keys, data, room.Version, RoomCacheTTL.Milliseconds()).Err()
}

// InvalidateRoom removes a room from cache.
func (s *CacheStore) InvalidateRoom(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, roomCachePrefix+roomID).Err()
}

// GetRoute retrieves a room's route from cache. Returns nil on a cache miss.
func (s *CacheStore) GetRoute(ctx context.Context, roomID string) (*domain.Route, error) {
	data, err := s.client.Get(ctx, routeCachePrefix+roomID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached cachedRoute
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &domain.Route{
		Origin:          domain.Coordinates{Lat: cached.OriginLat, Lng: cached.OriginLng},
		Destination:     domain.Coordinates{Lat: cached.DestinationLat, Lng: cached.DestinationLng},
		DistanceMeters:  cached.DistanceMeters,
		DurationSeconds: cached.DurationSeconds,
		Polyline:        cached.Polyline,
	}, nil
}

// SetRoute stores a room's route in cache.
func (s *CacheStore) SetRoute(ctx context.Context, roomID string, route *domain.Route) error {
	data, err := json.Marshal(cachedRoute{
		OriginLat:       route.Origin.Lat,
		OriginLng:       route.Origin.Lng,
		DestinationLat:  route.Destination.Lat,
		DestinationLng:  route.Destination.Lng,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Polyline:        route.Polyline,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, routeCachePrefix+roomID, data, RouteCacheTTL).Err()
}
