package model

import (
	"time"

	"github.com/google/uuid"
)

// Photo is the aggregate root: metadata, the likes set, and the ordered
// comment thread.
type Photo struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	FileKey   string    `db:"file_key" json:"-"`
	FileURL   string    `db:"file_url" json:"file_url"`
	Caption   string    `db:"caption" json:"caption"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Likes     []int64   `json:"likes"`
	LikeCount int       `json:"like_count"`
	Comments  []Comment `json:"comments"`

	// Joined field
	Owner *UserSummary `json:"owner"`
}

// Comment belongs to exactly one photo and owns its replies.
type Comment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PhotoID   uuid.UUID `db:"photo_id" json:"photo_id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Replies   []Reply   `json:"replies"`

	Author *UserSummary `json:"author"`
}

type Reply struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CommentID uuid.UUID `db:"comment_id" json:"comment_id"`
	PhotoID   uuid.UUID `db:"photo_id" json:"photo_id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Author *UserSummary `json:"author"`
}

// LikeState is the result of a like toggle.
type LikeState struct {
	Liked     bool    `json:"liked"`
	LikeCount int     `json:"like_count"`
	Likes     []int64 `json:"likes"`
}

// PhotoPage is one window of a user's photos, newest first.
type PhotoPage struct {
	Photos      []Photo `json:"photos"`
	CurrentPage int     `json:"currentPage"`
	TotalPages  int     `json:"totalPages"`
	TotalPhotos int     `json:"totalPhotos"`
}

// CreateCommentRequest is the request body for adding a comment or a reply.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// UpdateCaptionRequest is the request body for changing a caption. The field
// must be present; an empty string clears the caption.
type UpdateCaptionRequest struct {
	Caption *string `json:"caption" validate:"required"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Message string `json:"message"`
}

// Photo constraints
const (
	MaxCommentLength  = 2200 // Same as Instagram caption limit
	MaxCaptionLength  = 2200
	MaxPhotoSize      = 10 * 1024 * 1024 // 10MB
	PhotoMaxDimension = 2048
	PhotoFolder       = "photos"
)
