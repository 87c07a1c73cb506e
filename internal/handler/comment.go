package handler

import (
	"encoding/json"
	"net/http"

	"photoshare/internal/httputil"
	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/service"
	"photoshare/internal/transport/http/middleware"
)

type CommentHandler struct {
	interaction *service.InteractionService
	log         *logger.Logger
}

func NewCommentHandler(interaction *service.InteractionService, log *logger.Logger) *CommentHandler {
	return &CommentHandler{
		interaction: interaction,
		log:         log.With("component", "comment_handler"),
	}
}

// Create handles POST /photos/{photoId}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.interaction.AddComment(r.Context(), photoID, userID, req.Text)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "photo_id", photoID), err, "Failed to create comment")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Delete handles DELETE /photos/{photoId}/comments/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	commentID, err := uuidParam(r, "commentId")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	if err := h.interaction.DeleteComment(r.Context(), photoID, commentID, userID); err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "comment_id", commentID), err, "Failed to delete comment")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.DeleteResponse{Message: "Comment deleted successfully"})
}

// Reply handles POST /photos/{photoId}/comments/{commentId}/replies
func (h *CommentHandler) Reply(w http.ResponseWriter, r *http.Request) {
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
	commentID, err := uuidParam(r, "commentId")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	reply, err := h.interaction.AddReply(r.Context(), photoID, commentID, userID, req.Text)
	if err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "comment_id", commentID), err, "Failed to create reply")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, reply)
}

// DeleteReply handles DELETE /photos/{photoId}/comments/{commentId}/replies/{replyId}
func (h *CommentHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
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
	commentID, err := uuidParam(r, "commentId")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}
	replyID, err := uuidParam(r, "replyId")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid reply ID")
		return
	}

	if err := h.interaction.DeleteReply(r.Context(), photoID, commentID, replyID, userID); err != nil {
		httputil.WriteServiceError(w, h.log.With("user_id", userID, "reply_id", replyID), err, "Failed to delete reply")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.DeleteResponse{Message: "Reply deleted successfully"})
}
