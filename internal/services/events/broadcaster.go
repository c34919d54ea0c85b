package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSceneRendered  EventType = "scene.rendered"
	EventTypeSessionStarted EventType = "session.started"
	EventTypeSessionEnded   EventType = "session.ended"
)

// Event is the envelope published for every session event.
type Event struct {
	Type      EventType                 `json:"type"`
	SessionID string                    `json:"session_id"`
	Render    *engine.RenderInstruction `json:"render,omitempty"`
}

// Publisher sends session events somewhere. Broadcaster is the Redis one.
type Publisher interface {
	PublishRender(ctx context.Context, sessionID uuid.UUID, ri engine.RenderInstruction) error
	PublishSessionStarted(ctx context.Context, sessionID uuid.UUID) error
	PublishSessionEnded(ctx context.Context, sessionID uuid.UUID) error
}

// Broadcaster publishes render instructions to Redis Pub/Sub so remote
// renderers can follow a session.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel returns the pub/sub channel for a session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("scene-events:%s", sessionID.String())
}

// PublishRender publishes a scene.rendered event
func (b *Broadcaster) PublishRender(ctx context.Context, sessionID uuid.UUID, ri engine.RenderInstruction) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeSceneRendered,
		SessionID: sessionID.String(),
		Render:    &ri,
	})
}

// PublishSessionStarted publishes a session.started event
func (b *Broadcaster) PublishSessionStarted(ctx context.Context, sessionID uuid.UUID) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeSessionStarted,
		SessionID: sessionID.String(),
	})
}

// PublishSessionEnded publishes a session.ended event
func (b *Broadcaster) PublishSessionEnded(ctx context.Context, sessionID uuid.UUID) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeSessionEnded,
		SessionID: sessionID.String(),
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}

// Subscription delivers decoded events for one session.
type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
}

// Subscribe listens to a session's channel. Events arrive on Events until
// Close is called or ctx ends.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) (*Subscription, error) {
	pubsub := b.redisClient.Subscribe(ctx, Channel(sessionID))
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan Event, 16),
	}
	go func() {
		defer close(sub.events)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("Dropping malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case sub.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
