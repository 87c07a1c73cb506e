package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"photoshare/internal/handler"
	"photoshare/internal/httputil"
	authmw "photoshare/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	PhotoHandler        *handler.PhotoHandler
	CommentHandler      *handler.CommentHandler
	NotificationHandler *handler.NotificationHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public read paths
	r.Get("/users/{id}/photos", cfg.PhotoHandler.ListByUser)
	r.Get("/photos/{photoId}", cfg.PhotoHandler.Get)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/photos", cfg.PhotoHandler.Upload)
		r.Patch("/photos/{photoId}", cfg.PhotoHandler.UpdateCaption)
		r.Delete("/photos/{photoId}", cfg.PhotoHandler.Delete)
		r.Post("/photos/{photoId}/like", cfg.PhotoHandler.ToggleLike)

		r.Post("/photos/{photoId}/comments", cfg.CommentHandler.Create)
		r.Delete("/photos/{photoId}/comments/{commentId}", cfg.CommentHandler.Delete)
		r.Post("/photos/{photoId}/comments/{commentId}/replies", cfg.CommentHandler.Reply)
		r.Delete("/photos/{photoId}/comments/{commentId}/replies/{replyId}", cfg.CommentHandler.DeleteReply)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Get("/unread-count", cfg.NotificationHandler.UnreadCount)
			r.Patch("/read-all", cfg.NotificationHandler.MarkAllRead)
			r.Patch("/{id}/read", cfg.NotificationHandler.MarkRead)
			r.Delete("/{id}", cfg.NotificationHandler.Delete)
		})
	})

	return r
}
