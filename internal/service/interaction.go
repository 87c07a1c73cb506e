package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"photoshare/internal/cache"
	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/queue"
	"photoshare/internal/repository"
)

// publishTimeout bounds a single fanout hand-off.
const publishTimeout = 5 * time.Second

// ErrStorageUnavailable is returned by uploads when no file storage is configured.
var ErrStorageUnavailable = errors.New("file storage is not configured")

// InteractionService guards every user-facing mutation on the photo aggregate.
// Each action resolves its target, checks the caller, validates content,
// mutates the store and then hands an event to the fanout publisher.
type InteractionService struct {
	photoRepo repository.PhotoRepository
	storage   FileStorage
	index     cache.PhotoIndex
	publisher queue.Publisher
	authors   *authorResolver
	log       *logger.Logger
}

// NewInteractionService wires the service. storage, index and publisher may be nil.
func NewInteractionService(
	photoRepo repository.PhotoRepository,
	userRepo repository.UserRepository,
	storage FileStorage,
	index cache.PhotoIndex,
	publisher queue.Publisher,
	log *logger.Logger,
) *InteractionService {
	log = log.With("component", "interaction")
	return &InteractionService{
		photoRepo: photoRepo,
		storage:   storage,
		index:     index,
		publisher: publisher,
		authors:   newAuthorResolver(userRepo, log),
		log:       log,
	}
}

// UploadPhoto stores the file and creates an empty photo aggregate for ownerID.
func (s *InteractionService) UploadPhoto(ctx context.Context, ownerID int64, file multipart.File, header *multipart.FileHeader) (*model.Photo, error) {
	if file == nil || header == nil {
		return nil, model.ErrNoFile
	}
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	ref, err := s.storage.UploadPhoto(ctx, ownerID, file, header)
	if err != nil {
		return nil, err
	}

	photo, err := s.photoRepo.Create(ctx, ownerID, *ref)
	if err != nil {
		if delErr := s.storage.DeleteObject(context.WithoutCancel(ctx), ref.Key); delErr != nil {
			s.log.Error("Failed to remove orphaned upload", "key", ref.Key, "error", delErr)
		}
		return nil, fmt.Errorf("create photo: %w", err)
	}

	if s.index != nil {
		if err := s.index.Add(ctx, ownerID, photo.ID, photo.CreatedAt.UnixMilli()); err != nil {
			s.log.Warn("Failed to index photo", "photo_id", photo.ID, "owner_id", ownerID, "error", err)
		}
	}

	s.authors.photo(ctx, photo)
	return photo, nil
}

// ToggleLike flips the caller's like on the photo. Only the absent→present
// transition is announced.
func (s *InteractionService) ToggleLike(ctx context.Context, photoID uuid.UUID, callerID int64) (*model.LikeState, error) {
	ownerID, err := s.photoRepo.GetOwner(ctx, photoID)
	if err != nil {
		return nil, err
	}

	state, err := s.photoRepo.ToggleLike(ctx, photoID, callerID)
	if err != nil {
		return nil, err
	}

	if state.Liked && callerID != ownerID {
		s.emit(ctx, queue.NewPhotoLikedEvent(callerID, photoID, ownerID))
	}
	return state, nil
}

// UpdateCaption replaces the caption. Only the owner may do this.
func (s *InteractionService) UpdateCaption(ctx context.Context, photoID uuid.UUID, callerID int64, caption string) (*model.Photo, error) {
	ownerID, err := s.photoRepo.GetOwner(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if ownerID != callerID {
		return nil, model.ErrNotPhotoOwner
	}
	if utf8.RuneCountInString(caption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	updated, err := s.photoRepo.UpdateCaption(ctx, photoID, caption)
	if err != nil {
		return nil, err
	}
	s.authors.photo(ctx, updated)
	return updated, nil
}

// DeletePhoto removes the aggregate, then its stored file. A file that cannot
// be removed is reported as ErrFileCleanupFailed after the document is gone.
func (s *InteractionService) DeletePhoto(ctx context.Context, photoID uuid.UUID, callerID int64) error {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.OwnerID != callerID {
		return model.ErrNotPhotoOwner
	}

	if err := s.photoRepo.Delete(ctx, photoID); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Remove(ctx, photo.OwnerID, photoID); err != nil {
			s.log.Warn("Failed to unindex photo", "photo_id", photoID, "error", err)
		}
	}
	s.emit(ctx, queue.NewPhotoDeletedEvent(callerID, photoID))

	if s.storage == nil {
		return nil
	}
	if err := s.storage.DeleteObject(ctx, photo.FileKey); err != nil {
		s.log.Error("Photo removed but file cleanup failed", "photo_id", photoID, "key", photo.FileKey, "error", err)
		return fmt.Errorf("%w: %v", model.ErrFileCleanupFailed, err)
	}
	return nil
}

// emit publishes on a context detached from the request. Failures are logged
// and never reach the caller.
func (s *InteractionService) emit(ctx context.Context, event queue.InteractionEvent) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish interaction event", "type", event.Type,
			"photo_id", event.PhotoID, "actor_id", event.ActorID, "error", err)
	}
}

// normalizeText trims comment and reply bodies and enforces the length limit.
func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", model.ErrContentRequired
	}
	if utf8.RuneCountInString(text) > model.MaxCommentLength {
		return "", model.ErrContentTooLong
	}
	return text, nil
}
