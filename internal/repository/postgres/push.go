package postgres

import (
	"context"
	"database/sql"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// PushSubscriptionRepository implements repository.PushSubscriptionRepository
// using PostgreSQL.
type PushSubscriptionRepository struct {
	db *sql.DB
}

// NewPushSubscriptionRepository creates a new PushSubscriptionRepository.
func NewPushSubscriptionRepository(db *sql.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

var _ repository.PushSubscriptionRepository = (*PushSubscriptionRepository)(nil)

// Upsert stores a subscription, replacing the keys of an existing endpoint.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (endpoint, user_id, p256dh, auth, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (endpoint) DO UPDATE
		SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
	`
	_, err := r.db.ExecContext(ctx, query, sub.Endpoint, sub.UserID, sub.P256DH, sub.Auth, sub.CreatedAt)
	return err
}

// ListByUser retrieves every subscription of a user.
func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error) {
	query := `SELECT endpoint, user_id, p256dh, auth, created_at FROM push_subscriptions WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.PushSubscription
	for rows.Next() {
		var sub domain.PushSubscription
		if err := rows.Scan(&sub.Endpoint, &sub.UserID, &sub.P256DH, &sub.Auth, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// Delete removes a subscription by endpoint. Deleting an unknown endpoint is
// not an error.
func (r *PushSubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	return err
}
