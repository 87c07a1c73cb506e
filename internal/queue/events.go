package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types for the interaction stream
const (
	EventPhotoLiked     = "photo_liked"
	EventPhotoCommented = "photo_commented"
	EventCommentReplied = "comment_replied"
	EventPhotoDeleted   = "photo_deleted"
)

// Stream names
const (
	StreamInteractions = "stream:interactions"
)

// Consumer group name for notification workers
const (
	ConsumerGroupNotifications = "notification_workers"
)

// InteractionEvent is emitted after an interaction has been committed.
// Only like transitions from absent to present are emitted; unlikes are not.
type InteractionEvent struct {
	// ID is assigned once at construction. Notifications derived from the
	// event reuse it, so a redelivered event cannot notify twice.
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix milliseconds

	ActorID      int64     `json:"actor_id"`
	PhotoID      uuid.UUID `json:"photo_id"`
	PhotoOwnerID int64     `json:"photo_owner_id"`

	// Reply events carry the parent comment and its author.
	CommentID       *uuid.UUID `json:"comment_id,omitempty"`
	CommentAuthorID int64      `json:"comment_author_id,omitempty"`

	// Comment and reply text, used for the notification preview.
	Text string `json:"text,omitempty"`
}

// NewPhotoLikedEvent creates an event for a like transition absent -> present.
func NewPhotoLikedEvent(actorID int64, photoID uuid.UUID, ownerID int64) InteractionEvent {
	return InteractionEvent{
		ID:           uuid.New(),
		Type:         EventPhotoLiked,
		Timestamp:    time.Now().UnixMilli(),
		ActorID:      actorID,
		PhotoID:      photoID,
		PhotoOwnerID: ownerID,
	}
}

// NewPhotoCommentedEvent creates an event for a new comment.
func NewPhotoCommentedEvent(actorID int64, photoID uuid.UUID, ownerID int64, text string) InteractionEvent {
	return InteractionEvent{
		ID:           uuid.New(),
		Type:         EventPhotoCommented,
		Timestamp:    time.Now().UnixMilli(),
		ActorID:      actorID,
		PhotoID:      photoID,
		PhotoOwnerID: ownerID,
		Text:         text,
	}
}

// NewCommentRepliedEvent creates an event for a new reply to a comment.
func NewCommentRepliedEvent(actorID int64, photoID uuid.UUID, ownerID int64, commentID uuid.UUID, commentAuthorID int64, text string) InteractionEvent {
	return InteractionEvent{
		ID:              uuid.New(),
		Type:            EventCommentReplied,
		Timestamp:       time.Now().UnixMilli(),
		ActorID:         actorID,
		PhotoID:         photoID,
		PhotoOwnerID:    ownerID,
		CommentID:       &commentID,
		CommentAuthorID: commentAuthorID,
		Text:            text,
	}
}

// NewPhotoDeletedEvent creates an event for a deleted photo.
// Worker will remove the notifications that reference it.
func NewPhotoDeletedEvent(actorID int64, photoID uuid.UUID) InteractionEvent {
	return InteractionEvent{
		ID:           uuid.New(),
		Type:         EventPhotoDeleted,
		Timestamp:    time.Now().UnixMilli(),
		ActorID:      actorID,
		PhotoID:      photoID,
		PhotoOwnerID: actorID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e InteractionEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseInteractionEvent parses an InteractionEvent from Redis stream message values.
func ParseInteractionEvent(values map[string]interface{}) (InteractionEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return InteractionEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event InteractionEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return InteractionEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
