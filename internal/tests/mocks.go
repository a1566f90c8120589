package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"google.golang.org/genai"

	"rideshare/internal/domain"
	"rideshare/internal/mail"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK ROOM REPOSITORY
// ──────────────────────────────────────────────

// MockRoomRepository is an in-memory RoomRepository. Its guarded updates
// check the same conditions as the Postgres queries, under one lock.
type MockRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room

	// Counters for verification
	CreateCallCount         int32
	AddParticipantCallCount int32
	ExpireDueCallCount      int32

	// Error injection
	CreateError         error
	AddParticipantError error
	ListError           error

	// AfterGetByID runs after GetByID has read the row, outside the lock.
	AfterGetByID func(id string)
}

// NewMockRoomRepository creates a new mock room repository.
func NewMockRoomRepository() *MockRoomRepository {
	return &MockRoomRepository{
		rooms: make(map[string]*domain.Room),
	}
}

// AddRoom adds a room to the mock repository.
func (m *MockRoomRepository) AddRoom(room *domain.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = cloneRoom(room)
}

// Room returns a copy of the stored room, or nil.
func (m *MockRoomRepository) Room(id string) *domain.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil
	}
	return cloneRoom(room)
}

func cloneRoom(room *domain.Room) *domain.Room {
	c := *room
	c.ParticipantIDs = append([]string(nil), room.ParticipantIDs...)
	return &c
}

func (m *MockRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[room.ID]; exists {
		return repository.ErrConflict
	}
	m.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	m.mu.RLock()
	room, ok := m.rooms[id]
	if ok {
		room = cloneRoom(room)
	}
	m.mu.RUnlock()

	if !ok {
		return nil, repository.ErrNotFound
	}
	if m.AfterGetByID != nil {
		m.AfterGetByID(id)
	}
	return room, nil
}

func (m *MockRoomRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Room
	for _, id := range ids {
		if room, ok := m.rooms[id]; ok {
			result = append(result, cloneRoom(room))
		}
	}
	return result, nil
}

func (m *MockRoomRepository) List(ctx context.Context, filter repository.RoomFilter) ([]*domain.Room, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Room
	for _, room := range m.rooms {
		if room.Status != domain.RoomStatusOpen || room.IsExpired(filter.Now) {
			continue
		}
		if filter.OnlyAvailable && room.IsFull() {
			continue
		}
		if !hasPrefixFold(room.StartPoint, filter.StartPrefix) || !hasPrefixFold(room.Destination, filter.DestinationPrefix) {
			continue
		}
		result = append(result, cloneRoom(room))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

func (m *MockRoomRepository) ListByParticipant(ctx context.Context, userID string) ([]*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Room
	for _, room := range m.rooms {
		if room.HasParticipant(userID) {
			result = append(result, cloneRoom(room))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockRoomRepository) AddParticipant(ctx context.Context, roomID, userID string, now time.Time) (*domain.Room, error) {
	atomic.AddInt32(&m.AddParticipantCallCount, 1)
	if m.AddParticipantError != nil {
		return nil, m.AddParticipantError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, repository.ErrNoChange
	}
	if !room.IsJoinable(now) || room.HasParticipant(userID) {
		return nil, repository.ErrNoChange
	}
	room.ParticipantIDs = append(room.ParticipantIDs, userID)
	room.Version++
	return cloneRoom(room), nil
}

func (m *MockRoomRepository) RemoveParticipant(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, repository.ErrNoChange
	}
	if room.Status != domain.RoomStatusOpen || room.OwnerID == userID || !room.HasParticipant(userID) {
		return nil, repository.ErrNoChange
	}
	kept := room.ParticipantIDs[:0:0]
	for _, id := range room.ParticipantIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	room.ParticipantIDs = kept
	room.Version++
	return cloneRoom(room), nil
}

func (m *MockRoomRepository) UpdateStatus(ctx context.Context, roomID string, status domain.RoomStatus, at time.Time) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok || room.Status != domain.RoomStatusOpen {
		return nil, repository.ErrNoChange
	}
	room.Status = status
	room.ClosedAt = at
	room.Version++
	return cloneRoom(room), nil
}

func (m *MockRoomRepository) ExpireDue(ctx context.Context, now time.Time) ([]*domain.Room, error) {
	atomic.AddInt32(&m.ExpireDueCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []*domain.Room
	for _, room := range m.rooms {
		if room.Status != domain.RoomStatusOpen || room.ExpiresAt.IsZero() || now.Before(room.ExpiresAt) {
			continue
		}
		room.Status = domain.RoomStatusExpired
		room.ClosedAt = now
		room.Version++
		expired = append(expired, cloneRoom(room))
	}
	return expired, nil
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Error injection
	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *user
	m.users[user.ID] = &c
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			c := *u
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.College = user.College
	existing.AvatarURL = user.AvatarURL
	return nil
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmailVerified = true
	return nil
}

// ──────────────────────────────────────────────
// MOCK PUSH SUBSCRIPTION REPOSITORY
// ──────────────────────────────────────────────

// MockPushRepository is a mock implementation of PushSubscriptionRepository.
type MockPushRepository struct {
	mu   sync.RWMutex
	subs map[string]*domain.PushSubscription
}

// NewMockPushRepository creates a new mock push subscription repository.
func NewMockPushRepository() *MockPushRepository {
	return &MockPushRepository{
		subs: make(map[string]*domain.PushSubscription),
	}
}

func (m *MockPushRepository) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *sub
	m.subs[sub.Endpoint] = &c
	return nil
}

func (m *MockPushRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.PushSubscription
	for _, s := range m.subs {
		if s.UserID == userID {
			c := *s
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *MockPushRepository) Delete(ctx context.Context, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, endpoint)
	return nil
}

// Count returns the number of stored subscriptions.
func (m *MockPushRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
// FindNearbyRooms returns every indexed room with the configured distances.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]redis.RoomLocation

	// Distances overrides the reported distance per room.
	Distances map[string]float64

	// Error injection
	FindError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]redis.RoomLocation),
		Distances: make(map[string]float64),
	}
}

func (m *MockLocationStore) AddRoom(ctx context.Context, roomID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[roomID] = redis.RoomLocation{RoomID: roomID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) FindNearbyRooms(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]redis.RoomLocation, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []redis.RoomLocation
	for id, loc := range m.locations {
		loc.DistanceKm = m.Distances[id]
		if loc.DistanceKm > radiusKm {
			continue
		}
		result = append(result, loc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockLocationStore) RemoveRoom(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, roomID)
	return nil
}

// Has reports whether the room is indexed.
func (m *MockLocationStore) Has(roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[roomID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireCallCount int32
	ReleaseCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[name] {
		return false, nil
	}
	m.locks[name] = true
	return true, nil
}

func (m *MockLockStore) Release(ctx context.Context, name string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, name)
	return nil
}

// IsLocked reports whether the named lock is held.
func (m *MockLockStore) IsLocked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[name]
}

// ──────────────────────────────────────────────
// MOCK ROOM CACHE
// ──────────────────────────────────────────────

// MockRoomCache is a mock implementation of RoomCacheInterface.
type MockRoomCache struct {
	mu     sync.RWMutex
	rooms  map[string]*domain.Room
	routes map[string]*domain.Route

	InvalidateCallCount int32
	// SetErr, when set, fails every SetRoom.
	SetErr error
}

// NewMockRoomCache creates a new mock room cache.
func NewMockRoomCache() *MockRoomCache {
	return &MockRoomCache{
		rooms:  make(map[string]*domain.Room),
		routes: make(map[string]*domain.Route),
	}
}

func (m *MockRoomCache) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return cloneRoom(room), nil
}

// SetRoom keeps the newer of the cached and the given room, like the Redis
// cache does.
func (m *MockRoomCache) SetRoom(ctx context.Context, room *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if cur, ok := m.rooms[room.ID]; ok && cur.Version > room.Version {
		return nil
	}
	m.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (m *MockRoomCache) InvalidateRoom(ctx context.Context, roomID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	delete(m.routes, roomID)
	return nil
}

func (m *MockRoomCache) GetRoute(ctx context.Context, roomID string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[roomID]
	if !ok {
		return nil, nil
	}
	c := *route
	return &c, nil
}

func (m *MockRoomCache) SetRoute(ctx context.Context, roomID string, route *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *route
	m.routes[roomID] = &c
	return nil
}

// HasRoom reports whether the room is cached.
func (m *MockRoomCache) HasRoom(roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockEventPublisher records published room events.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []domain.RoomEvent
}

// NewMockEventPublisher creates a new mock event publisher.
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.RoomEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the published events in order.
func (m *MockEventPublisher) Events() []domain.RoomEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RoomEvent(nil), m.events...)
}

// Types returns the types of the published events in order.
func (m *MockEventPublisher) Types() []domain.RoomEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.RoomEventType, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

// ──────────────────────────────────────────────
// MOCK GEOCODER / ROUTER
// ──────────────────────────────────────────────

// MockGeocoder resolves addresses from a fixed table.
type MockGeocoder struct {
	mu        sync.Mutex
	places    map[string]domain.Coordinates
	CallCount int32
}

// NewMockGeocoder creates a new mock geocoder.
func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{
		places: make(map[string]domain.Coordinates),
	}
}

// AddPlace registers coordinates for an address.
func (m *MockGeocoder) AddPlace(address string, lat, lng float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places[address] = domain.Coordinates{Lat: lat, Lng: lng}
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*domain.Coordinates, error) {
	atomic.AddInt32(&m.CallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.places[address]
	if !ok {
		return nil, ErrMockLocationNotFound
	}
	return &c, nil
}

// ErrMockLocationNotFound is returned by MockGeocoder for unknown addresses.
var ErrMockLocationNotFound = errors.New("mock: location not found")

// MockRouteFinder returns a straight two-point route.
type MockRouteFinder struct {
	CallCount int32
	Error     error
}

func (m *MockRouteFinder) Route(ctx context.Context, origin, dest domain.Coordinates) (*domain.Route, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Error != nil {
		return nil, m.Error
	}
	return &domain.Route{
		Origin:          origin,
		Destination:     dest,
		DistanceMeters:  12500,
		DurationSeconds: 1800,
		Polyline:        "_p~iF~ps|U_ulLnnqC",
	}, nil
}

// ──────────────────────────────────────────────
// MOCK GENERATOR
// ──────────────────────────────────────────────

// MockGenerator returns a canned JSON reply and records prompts.
type MockGenerator struct {
	mu      sync.Mutex
	prompts []string

	Response string
	Error    error
}

func (m *MockGenerator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, out any) error {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Error != nil {
		return m.Error
	}
	return json.Unmarshal([]byte(m.Response), out)
}

// Prompts returns every prompt received.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// ──────────────────────────────────────────────
// MOCK PUSH SENDER
// ──────────────────────────────────────────────

// MockPushSender answers every push with StatusCode and records endpoints.
type MockPushSender struct {
	mu        sync.Mutex
	endpoints []string
	payloads  [][]byte

	StatusCode int
	Sent       chan string
}

// NewMockPushSender creates a mock sender that replies with status.
func NewMockPushSender(status int) *MockPushSender {
	return &MockPushSender{
		StatusCode: status,
		Sent:       make(chan string, 16),
	}
}

func (m *MockPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	m.mu.Lock()
	m.endpoints = append(m.endpoints, sub.Endpoint)
	m.payloads = append(m.payloads, payload)
	m.mu.Unlock()

	select {
	case m.Sent <- sub.Endpoint:
	default:
	}
	return &http.Response{
		StatusCode: m.StatusCode,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

// Payloads returns every payload sent.
func (m *MockPushSender) Payloads() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.payloads...)
}

// ──────────────────────────────────────────────
// MOCK MAILER
// ──────────────────────────────────────────────

// MockMailer records messages instead of sending them. Err, when set, is
// returned from every Send.
type MockMailer struct {
	mu       sync.Mutex
	messages []mail.Message

	Err error
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns every message sent.
func (m *MockMailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}
