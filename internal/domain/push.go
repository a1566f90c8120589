package domain

import "time"

// PushSubscription is a browser Web Push endpoint registered by a user.
type PushSubscription struct {
	Endpoint  string
	UserID    string
	P256DH    string
	Auth      string
	CreatedAt time.Time
}
