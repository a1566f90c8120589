package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

const roomColumns = `id, name, owner_id, owner_name, owner_avatar_url, participant_ids, start_point, destination,
		start_lat, start_lng, dest_lat, dest_lng, passenger_limit, vehicle_secured, status, expires_at, created_at, closed_at, version`

// RoomRepository is a PostgreSQL implementation of repository.RoomRepository.
type RoomRepository struct {
	q Querier
}

// NewRoomRepository creates a new PostgreSQL room repository.
func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{q: db}
}

// NewRoomRepositoryWithTx creates a room repository using a transaction.
func NewRoomRepositoryWithTx(tx *sql.Tx) *RoomRepository {
	return &RoomRepository{q: tx}
}

var _ repository.RoomRepository = (*RoomRepository)(nil)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Create persists a new room.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (` + roomColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	startLat, startLng := nullCoords(room.StartCoords)
	destLat, destLng := nullCoords(room.DestCoords)

	_, err := r.q.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.OwnerID,
		room.OwnerName,
		nullString(room.OwnerAvatarURL),
		pq.Array(room.ParticipantIDs),
		room.StartPoint,
		room.Destination,
		startLat,
		startLng,
		destLat,
		destLng,
		room.PassengerLimit,
		room.VehicleSecured,
		room.Status,
		nullTime(room.ExpiresAt),
		room.CreatedAt,
		nullTime(room.ClosedAt),
		room.Version,
	)
	return err
}

// GetByID retrieves a room by ID.
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return room, nil
}

// GetByIDs retrieves the rooms with the given IDs.
func (r *RoomRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ANY($1)`
	return r.queryRooms(ctx, query, pq.Array(ids))
}

// List retrieves open, unexpired rooms matching the filter, newest first.
func (r *RoomRepository) List(ctx context.Context, filter repository.RoomFilter) ([]*domain.Room, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + roomColumns + ` FROM rooms WHERE status = 'OPEN' AND (expires_at IS NULL OR expires_at > $1)`)
	args := []any{now}

	if filter.StartPrefix != "" {
		args = append(args, escapeLike(filter.StartPrefix)+"%")
		fmt.Fprintf(&sb, ` AND start_point ILIKE $%d ESCAPE '\'`, len(args))
	}
	if filter.DestinationPrefix != "" {
		args = append(args, escapeLike(filter.DestinationPrefix)+"%")
		fmt.Fprintf(&sb, ` AND destination ILIKE $%d ESCAPE '\'`, len(args))
	}
	if filter.OnlyAvailable {
		sb.WriteString(` AND cardinality(participant_ids) < passenger_limit`)
	}

	args = append(args, clampLimit(filter.Limit))
	fmt.Fprintf(&sb, ` ORDER BY created_at DESC LIMIT $%d`, len(args))

	return r.queryRooms(ctx, sb.String(), args...)
}

// ListByParticipant retrieves every room the user owns or joined.
func (r *RoomRepository) ListByParticipant(ctx context.Context, userID string) ([]*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE participant_ids @> ARRAY[$1]::text[] ORDER BY created_at DESC LIMIT 100`
	return r.queryRooms(ctx, query, userID)
}

// AddParticipant atomically appends userID when every join guard holds.
func (r *RoomRepository) AddParticipant(ctx context.Context, roomID, userID string, now time.Time) (*domain.Room, error) {
	query := `
		UPDATE rooms
		SET participant_ids = array_append(participant_ids, $2), version = version + 1
		WHERE id = $1
		  AND status = 'OPEN'
		  AND NOT ($2 = ANY(participant_ids))
		  AND cardinality(participant_ids) < passenger_limit
		  AND (expires_at IS NULL OR expires_at > $3)
		RETURNING ` + roomColumns

	return r.guardedUpdate(ctx, query, roomID, userID, now)
}

// RemoveParticipant atomically removes userID from an open room when present
// and not the owner.
func (r *RoomRepository) RemoveParticipant(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	query := `
		UPDATE rooms
		SET participant_ids = array_remove(participant_ids, $2), version = version + 1
		WHERE id = $1
		  AND status = 'OPEN'
		  AND $2 = ANY(participant_ids)
		  AND owner_id <> $2
		RETURNING ` + roomColumns

	return r.guardedUpdate(ctx, query, roomID, userID)
}

// UpdateStatus closes an open room.
func (r *RoomRepository) UpdateStatus(ctx context.Context, roomID string, status domain.RoomStatus, at time.Time) (*domain.Room, error) {
	query := `
		UPDATE rooms
		SET status = $2, closed_at = $3, version = version + 1
		WHERE id = $1 AND status = 'OPEN'
		RETURNING ` + roomColumns

	return r.guardedUpdate(ctx, query, roomID, status, at)
}

// ExpireDue marks every overdue open room as expired.
func (r *RoomRepository) ExpireDue(ctx context.Context, now time.Time) ([]*domain.Room, error) {
	query := `
		UPDATE rooms
		SET status = 'EXPIRED', closed_at = $1, version = version + 1
		WHERE status = 'OPEN' AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING ` + roomColumns

	return r.queryRooms(ctx, query, now)
}

func (r *RoomRepository) guardedUpdate(ctx context.Context, query string, args ...any) (*domain.Room, error) {
	room, err := scanRoom(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoChange
		}
		return nil, err
	}
	return room, nil
}

func (r *RoomRepository) queryRooms(ctx context.Context, query string, args ...any) ([]*domain.Room, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func scanRoom(row rowScanner) (*domain.Room, error) {
	var room domain.Room
	var ownerAvatar sql.NullString
	var startLat, startLng, destLat, destLng sql.NullFloat64
	var expiresAt, closedAt sql.NullTime

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.OwnerID,
		&room.OwnerName,
		&ownerAvatar,
		pq.Array(&room.ParticipantIDs),
		&room.StartPoint,
		&room.Destination,
		&startLat,
		&startLng,
		&destLat,
		&destLng,
		&room.PassengerLimit,
		&room.VehicleSecured,
		&room.Status,
		&expiresAt,
		&room.CreatedAt,
		&closedAt,
		&room.Version,
	)
	if err != nil {
		return nil, err
	}

	room.OwnerAvatarURL = ownerAvatar.String
	if startLat.Valid && startLng.Valid {
		room.StartCoords = &domain.Coordinates{Lat: startLat.Float64, Lng: startLng.Float64}
	}
	if destLat.Valid && destLng.Valid {
		room.DestCoords = &domain.Coordinates{Lat: destLat.Float64, Lng: destLng.Float64}
	}
	if expiresAt.Valid {
		room.ExpiresAt = expiresAt.Time
	}
	if closedAt.Valid {
		room.ClosedAt = closedAt.Time
	}
	return &room, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
