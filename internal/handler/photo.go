package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"photoshare/internal/httputil"
	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/service"
	"photoshare/internal/transport/http/middleware"
)

// photoFormField is the multipart field that carries the upload.
const photoFormField = "photo"

type PhotoHandler struct {
	interaction     *service.InteractionService
	gallery         *service.GalleryService
	validate        *validator.Validate
	defaultPageSize int
	log             *logger.Logger
}

func NewPhotoHandler(
	interaction *service.InteractionService,
	gallery *service.GalleryService,
	validate *validator.Validate,
	defaultPageSize int,
	log *logger.Logger,
) *PhotoHandler {
	return &PhotoHandler{
		interaction:     interaction,
		gallery:         gallery,
		validate:        validate,
		defaultPageSize: defaultPageSize,
		log:             log.With("component", "photo_handler"),
	}
}

// Upload handles POST /photos
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, model.MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(model.MaxPhotoSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "File too large")
			return
		}
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile(photoFormField)
	if err != nil {
		httputil.WriteServiceError(w, h.log, model.ErrNoFile, "Failed to upload photo")
		return
	}
	defer file.Close()

	photo, err := h.interaction.UploadPhoto(r.Context(), userID, file, header)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID), err, "Failed to upload photo")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, photo)
}

// Get handles GET /photos/{photoId}
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	photoID, err := uuidParam(r, "photoId")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid photo ID")
		return
	}

	photo, err := h.gallery.GetPhoto(r.Context(), photoID)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("photo_id", photoID), err, "Failed to get photo")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, photo)
}

// ListByUser handles GET /users/{id}/photos?page=&limit=
func (h *PhotoHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	q, err := parsePageQuery(r, h.validate, h.defaultPageSize)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to get photos")
		return
	}

	page, err := h.gallery.GetUserPhotos(r.Context(), ownerID, q.Page, q.Limit)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("owner_id", ownerID), err, "Failed to get photos")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// ToggleLike handles POST /photos/{photoId}/like
func (h *PhotoHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	photoID, err := uuidParam(r, "photoId")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid photo ID")
		return
	}

	state, err := h.interaction.ToggleLike(r.Context(), photoID, userID)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "photo_id", photoID), err, "Failed to toggle like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, state)
}

// UpdateCaption handles PATCH /photos/{photoId}
func (h *PhotoHandler) UpdateCaption(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	photoID, err := uuidParam(r, "photoId")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid photo ID")
		return
	}

	var req model.UpdateCaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, "Caption is required")
		return
	}

	photo, err := h.interaction.UpdateCaption(r.Context(), photoID, userID, *req.Caption)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "photo_id", photoID), err, "Failed to update caption")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, photo)
}

// Delete handles DELETE /photos/{photoId}
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	photoID, err := uuidParam(r, "photoId")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid photo ID")
		return
	}

	if err := h.interaction.DeletePhoto(r.Context(), photoID, userID); err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "photo_id", photoID), err, "Failed to delete photo")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.DeleteResponse{Message: "Photo deleted successfully"})
}
