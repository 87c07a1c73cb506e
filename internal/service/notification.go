package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

// NotificationService creates notifications from interaction events and serves
// recipient-scoped access to them.
type NotificationService struct {
	notifRepo   repository.NotificationRepository
	photoRepo   repository.PhotoRepository
	authors     *authorResolver
	maxPageSize int
	log         *logger.Logger
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	photoRepo repository.PhotoRepository,
	userRepo repository.UserRepository,
	maxPageSize int,
	log *logger.Logger,
) *NotificationService {
	log = log.With("component", "notification")
	return &NotificationService{
		notifRepo:   notifRepo,
		photoRepo:   photoRepo,
		authors:     newAuthorResolver(userRepo, log),
		maxPageSize: maxPageSize,
		log:         log,
	}
}

// CreateNotification stores n. Notifications a user would receive for their
// own action are dropped, and so are notifications about photos that no
// longer exist.
//
// The photo is checked again after the insert. A photo deleted in between has
// its purge racing this insert; whichever side runs last removes the row, so
// no notification outlives its photo.
func (s *NotificationService) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.ActorID == n.RecipientID {
		return nil
	}
	if n.Kind == model.NotificationKindReply && n.CommentID == nil {
		return fmt.Errorf("%w: reply notification needs a comment id", model.ErrValidation)
	}
	n.Content = model.Preview(n.Content)

	gone, err := s.photoGone(ctx, n.PhotoID)
	if err != nil {
		return err
	}
	if gone {
		s.log.Debug("Dropping notification for deleted photo", "photo_id", n.PhotoID, "kind", n.Kind)
		return nil
	}

	if err := s.notifRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	gone, err = s.photoGone(ctx, n.PhotoID)
	if err != nil {
		s.log.Warn("Photo recheck failed", "id", n.ID, "photo_id", n.PhotoID, "error", err)
		return nil
	}
	if gone {
		if err := s.notifRepo.Delete(ctx, n.ID); err != nil && !errors.Is(err, model.ErrNotificationNotFound) {
			return fmt.Errorf("remove notification for deleted photo: %w", err)
		}
		return nil
	}

	s.log.Debug("Notification created", "id", n.ID, "kind", n.Kind, "recipient_id", n.RecipientID)
	return nil
}

func (s *NotificationService) photoGone(ctx context.Context, photoID uuid.UUID) (bool, error) {
	_, err := s.photoRepo.GetOwner(ctx, photoID)
	if errors.Is(err, model.ErrPhotoNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check photo: %w", err)
	}
	return false, nil
}

// PurgePhoto deletes every notification pointing at the photo.
func (s *NotificationService) PurgePhoto(ctx context.Context, photoID uuid.UUID) (int64, error) {
	return s.notifRepo.DeleteByPhoto(ctx, photoID)
}

// List returns one page of the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID int64, page, limit int) (*model.NotificationListResponse, error) {
	if page < 1 || limit < 1 {
		return nil, model.ErrInvalidPagination
	}
	if s.maxPageSize > 0 && limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	total, unread, err := s.notifRepo.Counts(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	notifications := []model.Notification{}
	offset := (page - 1) * limit
	if offset < total {
		notifications, err = s.notifRepo.ListByRecipient(ctx, recipientID, offset, limit)
		if err != nil {
			return nil, err
		}
		s.authors.notifications(ctx, notifications)
		s.attachPhotos(ctx, notifications)
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
		CurrentPage:   page,
		TotalPages:    totalPages(total, limit),
	}, nil
}

// MarkRead marks a single notification as read for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID, callerID int64) error {
	if err := s.authorize(ctx, id, callerID); err != nil {
		return err
	}
	return s.notifRepo.MarkRead(ctx, id)
}

// MarkAllRead marks every unread notification of the recipient as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	return s.notifRepo.MarkAllRead(ctx, recipientID)
}

// Delete removes a notification owned by the caller.
func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID, callerID int64) error {
	if err := s.authorize(ctx, id, callerID); err != nil {
		return err
	}
	return s.notifRepo.Delete(ctx, id)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	_, unread, err := s.notifRepo.Counts(ctx, recipientID)
	return unread, err
}

func (s *NotificationService) authorize(ctx context.Context, id uuid.UUID, callerID int64) error {
	n, err := s.notifRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != callerID {
		return model.ErrNotRecipient
	}
	return nil
}

// attachPhotos sets the photo handle clients render as a thumbnail. A lookup
// failure leaves Photo nil.
func (s *NotificationService) attachPhotos(ctx context.Context, notifications []model.Notification) {
	seen := make(map[uuid.UUID]struct{}, len(notifications))
	ids := make([]uuid.UUID, 0, len(notifications))
	for _, n := range notifications {
		if _, ok := seen[n.PhotoID]; !ok {
			seen[n.PhotoID] = struct{}{}
			ids = append(ids, n.PhotoID)
		}
	}

	photos, err := s.photoRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("Failed to load notification photos", "count", len(ids), "error", err)
		return
	}
	refs := make(map[uuid.UUID]*model.PhotoRef, len(photos))
	for _, p := range photos {
		refs[p.ID] = &model.PhotoRef{ID: p.ID, FileURL: p.FileURL}
	}
	for i := range notifications {
		notifications[i].Photo = refs[notifications[i].PhotoID]
	}
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
