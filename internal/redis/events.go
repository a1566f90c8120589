package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"rideshare/internal/domain"
)

type eventMessage struct {
	Type       string      `json:"type"`
	RoomID     string      `json:"room_id"`
	ActorID    string      `json:"actor_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Room       *roomRecord `json:"room,omitempty"`
}

func toEventMessage(event domain.RoomEvent) eventMessage {
	msg := eventMessage{
		Type:       string(event.Type),
		RoomID:     event.RoomID,
		ActorID:    event.ActorID,
		OccurredAt: event.OccurredAt,
	}
	if event.Room != nil {
		msg.Room = toRoomRecord(event.Room)
	}
	return msg
}

func (msg eventMessage) toDomain() domain.RoomEvent {
	event := domain.RoomEvent{
		Type:       domain.RoomEventType(msg.Type),
		RoomID:     msg.RoomID,
		ActorID:    msg.ActorID,
		OccurredAt: msg.OccurredAt,
	}
	if msg.Room != nil {
		event.Room = msg.Room.toDomain()
	}
	return event
}

// EventBus carries room events between instances over Redis pub/sub.
type EventBus struct {
	client *redis.Client
}

// NewEventBus creates a new EventBus.
func NewEventBus(client *redis.Client) *EventBus {
	return &EventBus{client: client}
}

// Publish broadcasts a room event to every subscriber.
func (b *EventBus) Publish(ctx context.Context, event domain.RoomEvent) error {
	data, err := json.Marshal(toEventMessage(event))
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, roomEventsChannel, data).Err()
}

// Subscribe returns a channel of room events that is closed when ctx is
// cancelled.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan domain.RoomEvent, error) {
	pubsub := b.client.Subscribe(ctx, roomEventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan domain.RoomEvent, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var msg eventMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					slog.Warn("dropping malformed room event", "error", err)
					continue
				}
				select {
				case out <- msg.toDomain():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
