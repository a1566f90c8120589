package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLock deletes KEYS[1] only while it still holds this owner's token.
var releaseLock = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis. Each acquired lock holds a
// random token so that a Release after the TTL ran out cannot delete a lock
// another instance has since taken.
type LockStore struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client, tokens: make(map[string]string)}
}

// Acquire attempts to take the named lock for ttl.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	token := uuid.New().String()
	ok, err := s.client.SetNX(ctx, lockPrefix+name, token, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		s.mu.Lock()
		s.tokens[name] = token
		s.mu.Unlock()
	}
	return ok, nil
}

// Release releases the named lock if this store still owns it.
func (s *LockStore) Release(ctx context.Context, name string) error {
	s.mu.Lock()
	token, ok := s.tokens[name]
	delete(s.tokens, name)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return releaseLock.Run(ctx, s.client, []string{lockPrefix + name}, token).Err()
}
