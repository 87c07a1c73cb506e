package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error below wraps exactly one of these so the
// HTTP layer can map it to a status code with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// Not found, reported at the most specific level of the lookup path.
var (
	ErrPhotoNotFound        = fmt.Errorf("photo %w", ErrNotFound)
	ErrCommentNotFound      = fmt.Errorf("comment %w", ErrNotFound)
	ErrReplyNotFound        = fmt.Errorf("reply %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
)

// Ownership errors
var (
	ErrNotPhotoOwner    = fmt.Errorf("%w: not the owner of this photo", ErrForbidden)
	ErrNotCommentAuthor = fmt.Errorf("%w: not the author of this comment", ErrForbidden)
	ErrNotReplyAuthor   = fmt.Errorf("%w: not the author of this reply", ErrForbidden)
	ErrNotRecipient     = fmt.Errorf("%w: not the recipient of this notification", ErrForbidden)
)

// Input errors
var (
	ErrContentRequired   = fmt.Errorf("%w: text is required", ErrValidation)
	ErrContentTooLong    = fmt.Errorf("%w: text too long", ErrValidation)
	ErrCaptionTooLong    = fmt.Errorf("%w: caption too long", ErrValidation)
	ErrInvalidPagination = fmt.Errorf("%w: page and limit must be positive integers", ErrValidation)
	ErrInvalidID         = fmt.Errorf("%w: invalid id", ErrValidation)
	ErrNoFile            = fmt.Errorf("%w: no file uploaded", ErrValidation)
	ErrFileTooLarge      = fmt.Errorf("%w: file too large", ErrValidation)
	ErrInvalidImageType  = fmt.Errorf("%w: invalid image type", ErrValidation)
)

// ErrFileCleanupFailed is returned when a photo document was removed but its
// stored file could not be deleted.
var ErrFileCleanupFailed = errors.New("photo removed but file cleanup failed")

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
	CodeFileCleanup      = "FILE_CLEANUP_FAILED"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeTokenInvalid     = "TOKEN_INVALID"
)
