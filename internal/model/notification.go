package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds
const (
	NotificationKindLike    = "like"
	NotificationKindComment = "comment"
	NotificationKindReply   = "reply"
)

// MaxPreviewLength bounds the stored content preview, in characters.
const MaxPreviewLength = 100

// Notification represents a single notification record.
// CommentID is set if and only if Kind is reply.
type Notification struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	RecipientID int64      `db:"recipient_id" json:"-"`
	ActorID     int64      `db:"actor_id" json:"actor_id"`
	Kind        string     `db:"kind" json:"type"`
	PhotoID     uuid.UUID  `db:"photo_id" json:"photo_id"`
	CommentID   *uuid.UUID `db:"comment_id" json:"comment_id,omitempty"`
	Content     string     `db:"content" json:"content"`
	IsRead      bool       `db:"is_read" json:"read"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`

	// Joined fields for display
	Actor *UserSummary `db:"-" json:"actor"`
	Photo *PhotoRef    `db:"-" json:"photo"`
}

// PhotoRef is the display handle of the photo a notification points at.
type PhotoRef struct {
	ID      uuid.UUID `json:"id"`
	FileURL string    `json:"file_url"`
}

// NotificationListResponse is the paginated notification list response.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unreadCount"`
	CurrentPage   int            `json:"currentPage"`
	TotalPages    int            `json:"totalPages"`
}

// MarkAllReadResponse reports how many notifications were updated.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// UnreadCountResponse is the badge count.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// Preview truncates text to MaxPreviewLength characters.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= MaxPreviewLength {
		return text
	}
	return string(r[:MaxPreviewLength])
}
