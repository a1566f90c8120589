package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied by Migrate. Every statement is idempotent so it can run
// on each deploy.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id             TEXT PRIMARY KEY,
    first_name     TEXT NOT NULL,
    last_name      TEXT NOT NULL DEFAULT '',
    email          TEXT NOT NULL UNIQUE,
    college        TEXT NOT NULL DEFAULT '',
    avatar_url     TEXT,
    password_hash  TEXT NOT NULL,
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rooms (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    owner_id         TEXT NOT NULL REFERENCES users(id),
    owner_name       TEXT NOT NULL,
    owner_avatar_url TEXT,
    participant_ids  TEXT[] NOT NULL,
    start_point      TEXT NOT NULL,
    destination      TEXT NOT NULL,
    start_lat        DOUBLE PRECISION,
    start_lng        DOUBLE PRECISION,
    dest_lat         DOUBLE PRECISION,
    dest_lng         DOUBLE PRECISION,
    passenger_limit  INTEGER NOT NULL CHECK (passenger_limit BETWEEN 2 AND 4),
    vehicle_secured  BOOLEAN NOT NULL DEFAULT FALSE,
    status           TEXT NOT NULL,
    expires_at       TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    closed_at        TIMESTAMPTZ,
    version          BIGINT NOT NULL DEFAULT 1,
    CONSTRAINT rooms_capacity CHECK (cardinality(participant_ids) <= passenger_limit)
);

ALTER TABLE rooms ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 1;

CREATE TABLE IF NOT EXISTS push_subscriptions (
    endpoint   TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    p256dh     TEXT NOT NULL,
    auth       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rooms_status_created ON rooms(status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_rooms_participants ON rooms USING GIN (participant_ids);
CREATE INDEX IF NOT EXISTS idx_rooms_expires_open ON rooms(expires_at) WHERE status = 'OPEN';
CREATE INDEX IF NOT EXISTS idx_push_subscriptions_user ON push_subscriptions(user_id);
`

// Migrate creates the tables and indexes used by the repositories.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
