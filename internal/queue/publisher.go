package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"photoshare/internal/logger"
)

// Publisher hands committed interaction events to the notification pipeline.
type Publisher interface {
	// Publish returns an identifier for the delivered event.
	Publish(ctx context.Context, event InteractionEvent) (messageID string, err error)
}

// EventHandler processes one event. worker.Handler satisfies it.
type EventHandler interface {
	HandleEvent(ctx context.Context, event InteractionEvent) error
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	stream string
	log    *logger.Logger
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: StreamInteractions,
		log:    log.With("component", "publisher"),
	}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, event InteractionEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.log.Debug("Published event", "stream", p.stream, "type", event.Type, "msg_id", messageID,
		"photo_id", event.PhotoID, "actor_id", event.ActorID, "duration", time.Since(startTime))
	return messageID, nil
}

// InlinePublisher runs the handler synchronously. Used when Redis is not
// configured.
type InlinePublisher struct {
	handler EventHandler
}

func NewInlinePublisher(handler EventHandler) *InlinePublisher {
	return &InlinePublisher{handler: handler}
}

func (p *InlinePublisher) Publish(ctx context.Context, event InteractionEvent) (string, error) {
	if err := p.handler.HandleEvent(ctx, event); err != nil {
		return "", err
	}
	return fmt.Sprintf("inline-%d", event.Timestamp), nil
}
