package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rideshare/internal/domain"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository"
)

const reaperLockName = "room-reaper"

// ReaperDeps contains the collaborators of Reaper.
type ReaperDeps struct {
	RoomRepo  repository.RoomRepository
	Locks     internalRedis.LockStoreInterface
	Locations internalRedis.LocationStoreInterface
	Cache     internalRedis.RoomCacheInterface
	Events    EventPublisher
	Notifier  *NotificationService
	Metrics   *Metrics
	Interval  time.Duration
}

// Reaper expires open rooms whose expiry time has passed.
type Reaper struct {
	roomRepo repository.RoomRepository
	locks    internalRedis.LockStoreInterface
	effects  roomEffects
	interval time.Duration
	now      func() time.Time
}

// NewReaper creates a new Reaper.
func NewReaper(deps ReaperDeps) *Reaper {
	interval := deps.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		roomRepo: deps.RoomRepo,
		locks:    deps.Locks,
		effects: roomEffects{
			cache:     deps.Cache,
			locations: deps.Locations,
			events:    deps.Events,
			notifier:  deps.Notifier,
			metrics:   deps.Metrics,
		},
		interval: interval,
		now:      time.Now,
	}
}

// SetClock overrides the reaper clock.
func (r *Reaper) SetClock(now func() time.Time) {
	r.now = now
}

// RunOnce expires every overdue room and returns how many were expired.
// When another instance holds the reaper lock it does nothing.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	if r.locks != nil {
		acquired, err := r.locks.Acquire(ctx, reaperLockName, r.interval)
		if err != nil {
			return 0, fmt.Errorf("acquire reaper lock: %w", err)
		}
		if !acquired {
			return 0, nil
		}
		defer func() {
			if err := r.locks.Release(ctx, reaperLockName); err != nil {
				slog.Warn("failed to release reaper lock", "error", err)
			}
		}()
	}

	now := r.now()
	rooms, err := r.roomRepo.ExpireDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire rooms: %w", err)
	}

	for _, room := range rooms {
		r.effects.closed(ctx, room, domain.RoomEventExpired, "", now)
	}
	if len(rooms) > 0 {
		slog.Info("expired rooms", "count", len(rooms))
	}
	return len(rooms), nil
}

// Run calls RunOnce every interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				slog.Error("room reaper failed", "error", err)
			}
		}
	}
}
