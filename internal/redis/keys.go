package redis

import "strings"

// Key prefixes and names owned by this package.
const (
	roomCachePrefix   = "cache:room:"
	routeCachePrefix  = "cache:route:"
	roomLocationKey   = "rooms:start_locations"
	roomEventsChannel = "rooms:events"
	lockPrefix        = "lock:"
	idempotencyPrefix = "idempotency:"
)

// Collection names the logical collection a key or channel belongs to, for
// datastore metrics. Unknown keys report "other".
func Collection(key string) string {
	switch {
	case strings.HasPrefix(key, roomCachePrefix):
		return "room_cache"
	case strings.HasPrefix(key, routeCachePrefix):
		return "route_cache"
	case key == roomLocationKey:
		return "room_locations"
	case key == roomEventsChannel:
		return "room_events"
	case strings.HasPrefix(key, lockPrefix):
		return "locks"
	case strings.HasPrefix(key, idempotencyPrefix):
		return "idempotency"
	default:
		return "other"
	}
}

// IdempotencyKey builds the key under which a replayable response is stored.
func IdempotencyKey(parts ...string) string {
	return idempotencyPrefix + strings.Join(parts, ":")
}
