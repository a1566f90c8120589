package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// 4. CLOSING AND EXPIRY
// ──────────────────────────────────────────────

func TestCompleteRoom_OwnerOnly(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := f.createRoom(t, 3)
	ctx := context.Background()

	if _, err := f.service.JoinRoom(ctx, room.ID, "rider-1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.service.CompleteRoom(ctx, room.ID, "rider-1"); !errors.Is(err, service.ErrNotRoomOwner) {
		t.Errorf("expected ErrNotRoomOwner, got %v", err)
	}

	completed, err := f.service.CompleteRoom(ctx, room.ID, "owner-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if completed.Status != domain.RoomStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", completed.Status)
	}
	if !completed.ClosedAt.Equal(testNow) {
		t.Errorf("expected closed at %v, got %v", testNow, completed.ClosedAt)
	}
	if f.locations.Has(room.ID) {
		t.Error("expected closed room to leave the geo index")
	}
}

func TestCancelRoom_TerminalStateIsFinal(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := f.createRoom(t, 3)
	ctx := context.Background()

	if _, err := f.service.CancelRoom(ctx, room.ID, "owner-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.service.CompleteRoom(ctx, room.ID, "owner-1"); !errors.Is(err, service.ErrRoomClosed) {
		t.Errorf("expected ErrRoomClosed, got %v", err)
	}
	if _, err := f.service.JoinRoom(ctx, room.ID, "rider-1"); !errors.Is(err, service.ErrRoomClosed) {
		t.Errorf("expected ErrRoomClosed on join, got %v", err)
	}

	types := f.events.Types()
	if types[len(types)-1] != domain.RoomEventCancelled {
		t.Errorf("expected CANCELLED event last, got %v", types)
	}
}

func TestCloseRoom_ExpiredRoomReportsExpired(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	room := openRoom("room-exp", 3, "owner-1")
	room.Status = domain.RoomStatusExpired
	f.rooms.AddRoom(room)

	if _, err := f.service.CompleteRoom(context.Background(), room.ID, "owner-1"); !errors.Is(err, service.ErrRoomExpired) {
		t.Errorf("expected ErrRoomExpired, got %v", err)
	}
}

func newReaper(f *roomFixture, locks *MockLockStore) *service.Reaper {
	r := service.NewReaper(service.ReaperDeps{
		RoomRepo:  f.rooms,
		Locks:     locks,
		Locations: f.locations,
		Cache:     f.cache,
		Events:    f.events,
		Interval:  time.Minute,
	})
	r.SetClock(func() time.Time { return testNow.Add(2 * time.Hour) })
	return r
}

func TestReaper_ExpiresDueRooms(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	due := f.createRoom(t, 3)

	later := openRoom("room-later", 3, "owner-1")
	later.ExpiresAt = testNow.Add(3 * time.Hour)
	f.rooms.AddRoom(later)

	locks := NewMockLockStore()
	count, err := newReaper(f, locks).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 expired room, got %d", count)
	}
	if got := f.rooms.Room(due.ID).Status; got != domain.RoomStatusExpired {
		t.Errorf("expected EXPIRED, got %s", got)
	}
	if got := f.rooms.Room(later.ID).Status; got != domain.RoomStatusOpen {
		t.Errorf("expected later room to stay OPEN, got %s", got)
	}
	if f.locations.Has(due.ID) {
		t.Error("expected expired room to leave the geo index")
	}
	if locks.IsLocked("room-reaper") {
		t.Error("expected reaper lock to be released")
	}

	types := f.events.Types()
	if types[len(types)-1] != domain.RoomEventExpired {
		t.Errorf("expected EXPIRED event last, got %v", types)
	}
}

func TestReaper_SecondRunIsNoop(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	f.createRoom(t, 3)
	reaper := newReaper(f, NewMockLockStore())
	ctx := context.Background()

	if _, err := reaper.RunOnce(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	count, err := reaper.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if count != 0 {
		t.Errorf("expected nothing left to expire, got %d", count)
	}
}

func TestReaper_SkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	f.createRoom(t, 3)

	locks := NewMockLockStore()
	if ok, _ := locks.Acquire(context.Background(), "room-reaper", time.Minute); !ok {
		t.Fatal("expected to take the lock")
	}

	count, err := newReaper(f, locks).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no rooms expired while locked, got %d", count)
	}
	if f.rooms.ExpireDueCallCount != 0 {
		t.Error("ExpireDue must not run without the lock")
	}
}

func TestReaper_ConcurrentRunsExpireOnce(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	for i := 0; i < 5; i++ {
		f.createRoom(t, 2)
	}
	reaper := newReaper(f, NewMockLockStore())
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	wg.Add(4)
	for i := 0; i < 4; i++ {
		go func() {
			defer wg.Done()
			n, err := reaper.RunOnce(ctx)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 5 {
		t.Errorf("expected each room expired exactly once, got %d expirations", total)
	}
}

func TestReaper_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	reaper := newReaper(f, NewMockLockStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
