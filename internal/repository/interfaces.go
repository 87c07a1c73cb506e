package repository

import (
	"context"

	"github.com/google/uuid"

	"photoshare/internal/cache"
	"photoshare/internal/model"
)

// PhotoRepository is the aggregate store for photos and their nested likes,
// comments and replies. Nested operations resolve the whole path and fail
// with the most specific not-found error.
type PhotoRepository interface {
	Create(ctx context.Context, ownerID int64, file model.FileRef) (*model.Photo, error)
	GetByID(ctx context.Context, photoID uuid.UUID) (*model.Photo, error)
	// GetOwner resolves only the photo's owner, without loading the aggregate.
	GetOwner(ctx context.Context, photoID uuid.UUID) (int64, error)
	// GetByIDs returns the photos that still exist, in input order.
	GetByIDs(ctx context.Context, photoIDs []uuid.UUID) ([]model.Photo, error)
	// Page returns the owner's photos newest first plus the owner's total.
	// A page past the end yields an empty slice.
	Page(ctx context.Context, ownerID int64, page, pageSize int) ([]model.Photo, int, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	ListOwnerScores(ctx context.Context, ownerID int64) ([]cache.PhotoScore, error)
	UpdateCaption(ctx context.Context, photoID uuid.UUID, caption string) (*model.Photo, error)
	// Delete removes the photo with all of its comments and replies.
	Delete(ctx context.Context, photoID uuid.UUID) error

	// ToggleLike adds userID to the likes set if absent, removes it if
	// present, as one atomic operation.
	ToggleLike(ctx context.Context, photoID uuid.UUID, userID int64) (*model.LikeState, error)

	AddComment(ctx context.Context, photoID uuid.UUID, authorID int64, text string) (*model.Comment, error)
	GetComment(ctx context.Context, photoID, commentID uuid.UUID) (*model.Comment, error)
	RemoveComment(ctx context.Context, photoID, commentID uuid.UUID) error

	AddReply(ctx context.Context, photoID, commentID uuid.UUID, authorID int64, text string) (*model.Reply, error)
	GetReply(ctx context.Context, photoID, commentID, replyID uuid.UUID) (*model.Reply, error)
	RemoveReply(ctx context.Context, photoID, commentID, replyID uuid.UUID) error
}

type NotificationRepository interface {
	// Create inserts a new notification. ID and CreatedAt are assigned when
	// zero. Creating an ID that is already stored is a no-op.
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	// ListByRecipient returns notifications newest first.
	ListByRecipient(ctx context.Context, recipientID int64, offset, limit int) ([]model.Notification, error)
	// Counts returns the recipient's total and unread counts.
	Counts(ctx context.Context, recipientID int64) (total, unread int, err error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	// MarkAllRead returns how many notifications changed state.
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByPhoto removes every notification that references the photo.
	DeleteByPhoto(ctx context.Context, photoID uuid.UUID) (int64, error)
}

// UserRepository is the user directory used for display enrichment.
type UserRepository interface {
	// GetSummaries resolves ids to summaries. Unknown ids are absent from the map.
	GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
