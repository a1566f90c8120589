package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"rideshare/internal/domain"
	"rideshare/internal/mail"
	"rideshare/internal/repository"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationVerifyEmail       NotificationType = "VERIFY_EMAIL"
	NotificationParticipantJoined NotificationType = "PARTICIPANT_JOINED"
	NotificationParticipantLeft   NotificationType = "PARTICIPANT_LEFT"
	NotificationRoomCompleted     NotificationType = "ROOM_COMPLETED"
	NotificationRoomCancelled     NotificationType = "ROOM_CANCELLED"
	NotificationRoomExpired       NotificationType = "ROOM_EXPIRED"
)

const notificationQueueSize = 256

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// PushSender sends a single Web Push message.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// WebPushSender sends notifications with the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// NotificationService logs every notification and, when VAPID keys are
// configured, delivers it to the recipient's browsers through a pool of
// push workers.
type NotificationService struct {
	subs    repository.PushSubscriptionRepository
	options *webpush.Options
	sender  PushSender
	mailer  Mailer
	metrics *Metrics
	workers int
	jobs    chan Notification
	wg      sync.WaitGroup
}

// NewNotificationService creates a new NotificationService. options may be
// nil to disable Web Push.
func NewNotificationService(subs repository.PushSubscriptionRepository, options *webpush.Options, workers int, metrics *Metrics) *NotificationService {
	if workers <= 0 {
		workers = 1
	}
	return &NotificationService{
		subs:    subs,
		options: options,
		sender:  &WebPushSender{},
		metrics: metrics,
		workers: workers,
		jobs:    make(chan Notification, notificationQueueSize),
	}
}

// SetSender replaces the push sender.
func (s *NotificationService) SetSender(sender PushSender) {
	s.sender = sender
}

// SetMailer sets the mailer used for verification email.
func (s *NotificationService) SetMailer(mailer Mailer) {
	s.mailer = mailer
}

// PushEnabled reports whether Web Push delivery is configured.
func (s *NotificationService) PushEnabled() bool {
	return s.options != nil && s.subs != nil
}

// Start launches the push workers. They stop when ctx is cancelled.
func (s *NotificationService) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
}

// Wait blocks until every worker has stopped.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	slog.Debug("notification worker started", "worker", id)
	for {
		select {
		case n := <-s.jobs:
			s.deliver(ctx, n)
		case <-ctx.Done():
			slog.Debug("notification worker stopped", "worker", id)
			return
		}
	}
}

// NotifyVerification emails the verification link to a new user. The link
// carries a bearer token, so only the recipient is logged.
func (s *NotificationService) NotifyVerification(ctx context.Context, user *domain.User, link string) error {
	slog.InfoContext(ctx, "notification",
		"type", NotificationVerifyEmail,
		"recipient_id", user.ID,
		"title", "Verify your email",
	)

	if s.mailer == nil {
		s.metrics.notificationResult("email", ErrMailerUnavailable)
		return ErrMailerUnavailable
	}
	err := s.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Verify your email",
		Body:    fmt.Sprintf("Hi %s,\n\nConfirm %s to start sharing rides:\n\n%s\n", user.FirstName, user.Email, link),
	})
	s.metrics.notificationResult("email", err)
	if err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// NotifyParticipantJoined tells the room owner that someone joined.
func (s *NotificationService) NotifyParticipantJoined(ctx context.Context, room *domain.Room, name string) {
	s.send(ctx, Notification{
		Type:        NotificationParticipantJoined,
		RecipientID: room.OwnerID,
		Title:       "New rider",
		Message:     fmt.Sprintf("%s joined %s (%d/%d)", name, room.Name, room.Occupancy(), room.PassengerLimit),
		Data:        roomData(room),
	})
}

// NotifyParticipantLeft tells the room owner that someone left.
func (s *NotificationService) NotifyParticipantLeft(ctx context.Context, room *domain.Room, name string) {
	s.send(ctx, Notification{
		Type:        NotificationParticipantLeft,
		RecipientID: room.OwnerID,
		Title:       "Rider left",
		Message:     fmt.Sprintf("%s left %s (%d/%d)", name, room.Name, room.Occupancy(), room.PassengerLimit),
		Data:        roomData(room),
	})
}

// NotifyRoomClosed tells every participant except actorID that the room is
// no longer open.
func (s *NotificationService) NotifyRoomClosed(ctx context.Context, room *domain.Room, actorID string) {
	var notificationType NotificationType
	var title, message string

	switch room.Status {
	case domain.RoomStatusCompleted:
		notificationType = NotificationRoomCompleted
		title = "Ride completed"
		message = fmt.Sprintf("%s has been marked as completed", room.Name)
	case domain.RoomStatusCancelled:
		notificationType = NotificationRoomCancelled
		title = "Ride cancelled"
		message = fmt.Sprintf("%s was cancelled by %s", room.Name, room.OwnerName)
	case domain.RoomStatusExpired:
		notificationType = NotificationRoomExpired
		title = "Ride expired"
		message = fmt.Sprintf("%s expired", room.Name)
	default:
		return
	}

	for _, participantID := range room.ParticipantIDs {
		if participantID == actorID {
			continue
		}
		s.send(ctx, Notification{
			Type:        notificationType,
			RecipientID: participantID,
			Title:       title,
			Message:     message,
			Data:        roomData(room),
		})
	}
}

func roomData(room *domain.Room) map[string]interface{} {
	return map[string]interface{}{
		"room_id":     room.ID,
		"status":      room.Status,
		"occupancy":   room.Occupancy(),
		"destination": room.Destination,
	}
}

// send logs the notification and queues it for push delivery. The queue
// never blocks the caller; when it is full the push is dropped.
func (s *NotificationService) send(ctx context.Context, n Notification) {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now()

	slog.InfoContext(ctx, "notification",
		"type", n.Type,
		"recipient_id", n.RecipientID,
		"title", n.Title,
		"message", n.Message,
	)
	s.metrics.notificationResult("log", nil)

	if !s.PushEnabled() {
		return
	}
	select {
	case s.jobs <- n:
	default:
		slog.Warn("notification queue full, dropping push", "type", n.Type, "recipient_id", n.RecipientID)
		s.metrics.notificationResult("push", fmt.Errorf("queue full"))
	}
}

type pushPayload struct {
	ID      string                 `json:"id"`
	Type    NotificationType       `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// deliver pushes one notification to every subscription of its recipient.
func (s *NotificationService) deliver(ctx context.Context, n Notification) {
	subs, err := s.subs.ListByUser(ctx, n.RecipientID)
	if err != nil {
		slog.Error("failed to load push subscriptions", "recipient_id", n.RecipientID, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{
		ID:      n.ID,
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
		Data:    n.Data,
	})
	if err != nil {
		slog.Error("failed to encode push payload", "error", err)
		return
	}

	for _, sub := range subs {
		s.push(ctx, sub, payload)
	}
}

func (s *NotificationService) push(ctx context.Context, sub *domain.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := s.sender.Send(payload, wpSub, s.options)
	if err != nil {
		slog.Warn("push send failed", "endpoint", sub.Endpoint, "error", err)
		s.metrics.notificationResult("push", err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		slog.Info("push subscription expired, deleting", "endpoint", sub.Endpoint)
		if err := s.subs.Delete(ctx, sub.Endpoint); err != nil {
			slog.Error("failed to delete expired subscription", "endpoint", sub.Endpoint, "error", err)
		}
		s.metrics.notificationResult("push", fmt.Errorf("gone"))
	case resp.StatusCode >= 400:
		slog.Warn("push rejected", "endpoint", sub.Endpoint, "status", resp.StatusCode)
		s.metrics.notificationResult("push", fmt.Errorf("status %d", resp.StatusCode))
	default:
		s.metrics.notificationResult("push", nil)
	}
}

// RegisterSubscription stores a browser push subscription for userID.
func (s *NotificationService) RegisterSubscription(ctx context.Context, userID string, sub domain.PushSubscription) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if !isPushEndpoint(sub.Endpoint) || sub.P256DH == "" || sub.Auth == "" {
		return ErrInvalidSubscription
	}
	if s.subs == nil {
		return ErrInvalidSubscription
	}

	sub.UserID = userID
	sub.CreatedAt = time.Now()
	return s.subs.Upsert(ctx, &sub)
}

// RemoveSubscription deletes one of userID's push subscriptions.
func (s *NotificationService) RemoveSubscription(ctx context.Context, userID, endpoint string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if endpoint == "" || s.subs == nil {
		return ErrInvalidSubscription
	}

	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if sub.Endpoint == endpoint {
			return s.subs.Delete(ctx, endpoint)
		}
	}
	return repository.ErrNotFound
}

func isPushEndpoint(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.Scheme == "https" && u.Host != ""
}
