package repository

import (
	"context"

	"rideshare/internal/domain"
)

// PushSubscriptionRepository defines the persistence operations for Web Push
// subscriptions.
type PushSubscriptionRepository interface {
	// Upsert stores a subscription, replacing any existing one for the endpoint.
	Upsert(ctx context.Context, sub *domain.PushSubscription) error

	// ListByUser retrieves every subscription of a user.
	ListByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error)

	// Delete removes a subscription by endpoint.
	Delete(ctx context.Context, endpoint string) error
}
