package service

import (
	"context"

	"github.com/google/uuid"

	"photoshare/internal/cache"
	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

// GalleryService serves read paths over a user's photos: offset pages newest
// first and single photos. Pages come from the Redis photo index when it is
// warm and from the store otherwise.
type GalleryService struct {
	photoRepo   repository.PhotoRepository
	userRepo    repository.UserRepository
	index       cache.PhotoIndex
	authors     *authorResolver
	maxPageSize int
	log         *logger.Logger
}

// NewGalleryService wires the service. index may be nil.
func NewGalleryService(
	photoRepo repository.PhotoRepository,
	userRepo repository.UserRepository,
	index cache.PhotoIndex,
	maxPageSize int,
	log *logger.Logger,
) *GalleryService {
	log = log.With("component", "gallery")
	return &GalleryService{
		photoRepo:   photoRepo,
		userRepo:    userRepo,
		index:       index,
		authors:     newAuthorResolver(userRepo, log),
		maxPageSize: maxPageSize,
		log:         log,
	}
}

// GetUserPhotos returns page `page` of ownerID's photos with `limit` per page.
// Pages are not a consistent snapshot if the collection changes between calls.
func (s *GalleryService) GetUserPhotos(ctx context.Context, ownerID int64, page, limit int) (*model.PhotoPage, error) {
	if ownerID <= 0 {
		return nil, model.ErrInvalidID
	}
	if page < 1 || limit < 1 {
		return nil, model.ErrInvalidPagination
	}
	if s.maxPageSize > 0 && limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	exists, err := s.userRepo.Exists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	photos, total, err := s.window(ctx, ownerID, page, limit)
	if err != nil {
		return nil, err
	}
	s.authors.photos(ctx, photos)

	return &model.PhotoPage{
		Photos:      photos,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
		TotalPhotos: total,
	}, nil
}

// GetPhoto returns one enriched photo aggregate.
func (s *GalleryService) GetPhoto(ctx context.Context, photoID uuid.UUID) (*model.Photo, error) {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	s.authors.photo(ctx, photo)
	return photo, nil
}

func (s *GalleryService) window(ctx context.Context, ownerID int64, page, limit int) ([]model.Photo, int, error) {
	if s.index != nil {
		if photos, total, ok := s.fromIndex(ctx, ownerID, page, limit); ok {
			return photos, total, nil
		}
	}

	photos, total, err := s.photoRepo.Page(ctx, ownerID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if photos == nil {
		photos = []model.Photo{}
	}
	return photos, total, nil
}

// fromIndex serves the page from the sorted set. A cold index, or one whose
// size disagrees with the store, is rebuilt from the store and the current
// request falls through to the store. The size check catches photos that an
// Add racing a warm, or a failed Add, left out of the index.
func (s *GalleryService) fromIndex(ctx context.Context, ownerID int64, page, limit int) ([]model.Photo, int, bool) {
	ids, total, found, err := s.index.Window(ctx, ownerID, (page-1)*limit, limit)
	if err != nil {
		s.log.Warn("Photo index read failed, using store", "owner_id", ownerID, "error", err)
		return nil, 0, false
	}
	if !found {
		s.warm(ctx, ownerID)
		return nil, 0, false
	}

	stored, err := s.photoRepo.CountByOwner(ctx, ownerID)
	if err != nil {
		s.log.Warn("Photo count failed, using store", "owner_id", ownerID, "error", err)
		return nil, 0, false
	}
	if stored != total {
		s.log.Info("Photo index drifted, rebuilding", "owner_id", ownerID, "indexed", total, "stored", stored)
		s.warm(ctx, ownerID)
		return nil, 0, false
	}
	if len(ids) == 0 {
		return []model.Photo{}, total, true
	}

	photos, err := s.photoRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("Photo hydrate failed, using store", "owner_id", ownerID, "error", err)
		return nil, 0, false
	}
	if len(photos) != len(ids) {
		// Stale entries; rebuild from the store.
		s.warm(ctx, ownerID)
		return nil, 0, false
	}
	return photos, total, true
}

func (s *GalleryService) warm(ctx context.Context, ownerID int64) {
	scores, err := s.photoRepo.ListOwnerScores(ctx, ownerID)
	if err != nil {
		s.log.Warn("Failed to load photo scores", "owner_id", ownerID, "error", err)
		return
	}
	if err := s.index.Warm(ctx, ownerID, scores); err != nil {
		s.log.Warn("Failed to warm photo index", "owner_id", ownerID, "error", err)
	}
}
