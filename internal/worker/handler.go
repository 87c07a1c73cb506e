package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/queue"
)

// NotificationCreator persists notifications derived from events.
// This allows the worker to create notifications without depending on the service directly.
type NotificationCreator interface {
	// CreateNotification stores n. Self-directed notifications are dropped.
	CreateNotification(ctx context.Context, n *model.Notification) error
	// PurgePhoto removes every notification that references the photo.
	PurgePhoto(ctx context.Context, photoID uuid.UUID) (int64, error)
}

// Handler turns interaction events into notifications.
type Handler struct {
	notifCreator NotificationCreator
	log          *logger.Logger
}

// NewHandler creates a new event handler.
func NewHandler(notifCreator NotificationCreator, log *logger.Logger) *Handler {
	return &Handler{
		notifCreator: notifCreator,
		log:          log.With("component", "worker"),
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.InteractionEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPhotoLiked:
		err = h.handlePhotoLiked(ctx, event)
	case queue.EventPhotoCommented:
		err = h.handlePhotoCommented(ctx, event)
	case queue.EventCommentReplied:
		err = h.handleCommentReplied(ctx, event)
	case queue.EventPhotoDeleted:
		err = h.handlePhotoDeleted(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %q", event.Type)
	}

	if err != nil {
		h.log.Warn("HandleEvent failed", "type", event.Type, "photo_id", event.PhotoID,
			"duration", time.Since(startTime), "error", err)
		return err
	}

	h.log.Debug("HandleEvent", "type", event.Type, "photo_id", event.PhotoID, "duration", time.Since(startTime))
	return nil
}

// handlePhotoLiked notifies the photo owner. Unlikes are never published.
func (h *Handler) handlePhotoLiked(ctx context.Context, event queue.InteractionEvent) error {
	if event.ActorID == event.PhotoOwnerID {
		return nil
	}

	err := h.notifCreator.CreateNotification(ctx, &model.Notification{
		ID:          event.ID,
		RecipientID: event.PhotoOwnerID,
		ActorID:     event.ActorID,
		CreatedAt:   occurredAt(event),
		Kind:        model.NotificationKindLike,
		PhotoID:     event.PhotoID,
	})
	if err != nil {
		return fmt.Errorf("create like notification: %w", err)
	}
	return nil
}

// handlePhotoCommented notifies the photo owner with a preview of the comment.
func (h *Handler) handlePhotoCommented(ctx context.Context, event queue.InteractionEvent) error {
	if event.ActorID == event.PhotoOwnerID {
		return nil
	}

	err := h.notifCreator.CreateNotification(ctx, &model.Notification{
		ID:          event.ID,
		RecipientID: event.PhotoOwnerID,
		ActorID:     event.ActorID,
		CreatedAt:   occurredAt(event),
		Kind:        model.NotificationKindComment,
		PhotoID:     event.PhotoID,
		Content:     model.Preview(event.Text),
	})
	if err != nil {
		return fmt.Errorf("create comment notification: %w", err)
	}
	return nil
}

// handleCommentReplied notifies the author of the parent comment, not the
// photo owner.
func (h *Handler) handleCommentReplied(ctx context.Context, event queue.InteractionEvent) error {
	if event.CommentID == nil {
		return fmt.Errorf("reply event without comment id")
	}
	if event.ActorID == event.CommentAuthorID {
		return nil
	}

	commentID := *event.CommentID
	err := h.notifCreator.CreateNotification(ctx, &model.Notification{
		ID:          event.ID,
		RecipientID: event.CommentAuthorID,
		ActorID:     event.ActorID,
		CreatedAt:   occurredAt(event),
		Kind:        model.NotificationKindReply,
		PhotoID:     event.PhotoID,
		CommentID:   &commentID,
		Content:     model.Preview(event.Text),
	})
	if err != nil {
		return fmt.Errorf("create reply notification: %w", err)
	}
	return nil
}

// handlePhotoDeleted removes notifications that point at the deleted photo.
func (h *Handler) handlePhotoDeleted(ctx context.Context, event queue.InteractionEvent) error {
	deleted, err := h.notifCreator.PurgePhoto(ctx, event.PhotoID)
	if err != nil {
		return fmt.Errorf("purge photo notifications: %w", err)
	}
	h.log.Debug("Purged photo notifications", "photo_id", event.PhotoID, "deleted", deleted)
	return nil
}

// occurredAt dates a notification at its interaction. Events without a
// timestamp leave it to the store.
func occurredAt(event queue.InteractionEvent) time.Time {
	if event.Timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(event.Timestamp).UTC()
}
