package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"photoshare/internal/handler"
	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/queue"
	"photoshare/internal/repository"
	"photoshare/internal/service"
	transport "photoshare/internal/transport/http"
	"photoshare/internal/worker"
)

const testSecret = "router-secret"

type routerEnv struct {
	server *httptest.Server
	photos repository.PhotoRepository
}

// newRouterEnv serves the full router over the in-memory store with inline
// fanout and no file storage.
func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	log := logger.Nop()

	photos := repository.NewMemoryPhotoRepository()
	users := repository.NewMemoryUserRepository(
		model.UserSummary{ID: 1, FirstName: "Alice"},
		model.UserSummary{ID: 2, FirstName: "Bob"},
	)
	notifications := service.NewNotificationService(repository.NewMemoryNotificationRepository(), photos, users, 50, log)
	publisher := queue.NewInlinePublisher(worker.NewHandler(notifications, log))
	interaction := service.NewInteractionService(photos, users, nil, nil, publisher, log)
	gallery := service.NewGalleryService(photos, users, nil, 50, log)

	validate := validator.New()
	router := transport.NewRouter(transport.RouterConfig{
		PhotoHandler:        handler.NewPhotoHandler(interaction, gallery, validate, 12, log),
		CommentHandler:      handler.NewCommentHandler(interaction, log),
		NotificationHandler: handler.NewNotificationHandler(notifications, validate, 20, log),
		JWTSecret:           testSecret,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &routerEnv{server: srv, photos: photos}
}

func (e *routerEnv) do(t *testing.T, method, path string, userID int64, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": userID,
			"exp":     time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func errorCode(body map[string]interface{}) string {
	detail, _ := body["error"].(map[string]interface{})
	code, _ := detail["code"].(string)
	return code
}

func TestRouter_StatusMapping(t *testing.T) {
	env := newRouterEnv(t)
	photo, err := env.photos.Create(context.Background(), 1, model.FileRef{Key: "photos/1/a.jpg", URL: "https://cdn.test/a.jpg"})
	if err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	photoPath := "/photos/" + photo.ID.String()

	tests := []struct {
		name       string
		method     string
		path       string
		userID     int64
		body       string
		wantStatus int
		wantCode   string
	}{
		{"health", http.MethodGet, "/health", 0, "", http.StatusOK, ""},
		{"public photo read", http.MethodGet, photoPath, 0, "", http.StatusOK, ""},
		{"malformed photo id", http.MethodGet, "/photos/not-a-uuid", 0, "", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown photo", http.MethodGet, "/photos/" + uuid.NewString(), 0, "", http.StatusNotFound, "NOT_FOUND"},
		{"like without token", http.MethodPost, photoPath + "/like", 0, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"like unknown photo", http.MethodPost, "/photos/" + uuid.NewString() + "/like", 2, "", http.StatusNotFound, "NOT_FOUND"},
		{"caption by stranger", http.MethodPatch, photoPath, 2, `{"caption":"mine now"}`, http.StatusForbidden, "FORBIDDEN"},
		{"caption missing", http.MethodPatch, photoPath, 1, `{}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"caption too long", http.MethodPatch, photoPath, 1, `{"caption":"` + strings.Repeat("a", model.MaxCaptionLength+1) + `"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"blank comment", http.MethodPost, photoPath + "/comments", 2, `{"text":"   "}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"delete by stranger", http.MethodDelete, photoPath, 2, "", http.StatusForbidden, "FORBIDDEN"},
		{"bad user id", http.MethodGet, "/users/abc/photos", 0, "", http.StatusBadRequest, "BAD_REQUEST"},
		{"bad page", http.MethodGet, "/users/1/photos?page=0", 0, "", http.StatusBadRequest, "BAD_REQUEST"},
		{"bad limit", http.MethodGet, "/users/1/photos?limit=x", 0, "", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown user", http.MethodGet, "/users/99/photos", 0, "", http.StatusNotFound, "NOT_FOUND"},
		{"notifications without token", http.MethodGet, "/notifications", 0, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"mark unknown notification", http.MethodPatch, "/notifications/" + uuid.NewString() + "/read", 1, "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, tt.method, tt.path, tt.userID, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %v)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantCode != "" && errorCode(body) != tt.wantCode {
				t.Errorf("code = %s, want %s", errorCode(body), tt.wantCode)
			}
		})
	}
}

func TestRouter_LikeCommentNotify(t *testing.T) {
	env := newRouterEnv(t)
	photo, err := env.photos.Create(context.Background(), 1, model.FileRef{Key: "photos/1/b.jpg", URL: "https://cdn.test/b.jpg"})
	if err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	photoPath := "/photos/" + photo.ID.String()

	resp, body := env.do(t, http.MethodPost, photoPath+"/like", 2, "")
	if resp.StatusCode != http.StatusOK || body["liked"] != true || body["like_count"] != float64(1) {
		t.Fatalf("like: status %d body %v", resp.StatusCode, body)
	}

	resp, body = env.do(t, http.MethodPost, photoPath+"/comments", 2, `{"text":"  lovely  "}`)
	if resp.StatusCode != http.StatusCreated || body["text"] != "lovely" {
		t.Fatalf("comment: status %d body %v", resp.StatusCode, body)
	}
	author, _ := body["author"].(map[string]interface{})
	if author["first_name"] != "Bob" {
		t.Errorf("comment author not enriched: %v", body["author"])
	}

	resp, body = env.do(t, http.MethodGet, "/notifications?limit=1", 1, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications: status %d", resp.StatusCode)
	}
	if body["total"] != float64(2) || body["unreadCount"] != float64(2) || body["totalPages"] != float64(2) {
		t.Errorf("unexpected counters: %v", body)
	}

	resp, body = env.do(t, http.MethodPatch, "/notifications/read-all", 1, "")
	if resp.StatusCode != http.StatusOK || body["updated"] != float64(2) {
		t.Errorf("read-all: status %d body %v", resp.StatusCode, body)
	}

	resp, body = env.do(t, http.MethodGet, "/notifications/unread-count", 1, "")
	if resp.StatusCode != http.StatusOK || body["unread_count"] != float64(0) {
		t.Errorf("unread-count: status %d body %v", resp.StatusCode, body)
	}

	// The liker has no notifications of their own.
	_, body = env.do(t, http.MethodGet, "/notifications", 2, "")
	if body["total"] != float64(0) {
		t.Errorf("self actions must not notify, bob has %v", body["total"])
	}
}
