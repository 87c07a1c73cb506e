package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"photoshare/internal/httputil"
	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/service"
	"photoshare/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notifications   *service.NotificationService
	validate        *validator.Validate
	defaultPageSize int
	log             *logger.Logger
}

func NewNotificationHandler(
	notifications *service.NotificationService,
	validate *validator.Validate,
	defaultPageSize int,
	log *logger.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notifications:   notifications,
		validate:        validate,
		defaultPageSize: defaultPageSize,
		log:             log.With("component", "notification_handler"),
	}
}

// List handles GET /notifications?page=&limit=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	q, err := parsePageQuery(r, h.validate, h.defaultPageSize)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to get notifications")
		return
	}

	resp, err := h.notifications.List(r.Context(), userID, q.Page, q.Limit)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID), err, "Failed to get notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID), err, "Failed to get unread count")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.UnreadCountResponse{UnreadCount: count})
}

// MarkRead handles PATCH /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid notification ID")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id, userID); err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "notification_id", id), err, "Failed to mark notification as read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Notification marked as read",
	})
}

// MarkAllRead handles PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID), err, "Failed to mark notifications as read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.MarkAllReadResponse{Updated: updated})
}

// Delete handles DELETE /notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid notification ID")
		return
	}

	if err := h.notifications.Delete(r.Context(), id, userID); err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "notification_id", id), err, "Failed to delete notification")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.DeleteResponse{Message: "Notification deleted successfully"})
}
