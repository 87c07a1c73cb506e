package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"

	"photoshare/internal/cache"
	"photoshare/internal/logger"
	"photoshare/internal/model"
	"photoshare/internal/queue"
	"photoshare/internal/repository"
	"photoshare/internal/worker"
)

// =============================================================================
// FAKES
// =============================================================================

// memFile satisfies multipart.File over an in-memory buffer.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func newUpload(data []byte) (multipart.File, *multipart.FileHeader) {
	return memFile{bytes.NewReader(data)}, &multipart.FileHeader{Filename: "photo.jpg", Size: int64(len(data))}
}

type fakeStorage struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error
	deleted   []string
}

func (f *fakeStorage) UploadPhoto(ctx context.Context, ownerID int64, file multipart.File, header *multipart.FileHeader) (*model.FileRef, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	key := "photos/" + uuid.NewString() + ".jpg"
	return &model.FileRef{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

// recordingPublisher keeps published events and optionally forwards them.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []queue.InteractionEvent
	err     error
	forward queue.EventHandler
}

func (p *recordingPublisher) Publish(ctx context.Context, event queue.InteractionEvent) (string, error) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	if p.err != nil {
		return "", p.err
	}
	if p.forward != nil {
		if err := p.forward.HandleEvent(ctx, event); err != nil {
			return "", err
		}
	}
	return "1-0", nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fakePhotoIndex mirrors the Redis index semantics: writes to a cold owner
// are dropped until Warm seeds it.
type fakePhotoIndex struct {
	mu      sync.Mutex
	owners  map[int64]map[uuid.UUID]int64
	windows int
	warms   int
	err     error
}

func newFakePhotoIndex() *fakePhotoIndex {
	return &fakePhotoIndex{owners: make(map[int64]map[uuid.UUID]int64)}
}

func (f *fakePhotoIndex) Add(ctx context.Context, ownerID int64, photoID uuid.UUID, ts int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if set, ok := f.owners[ownerID]; ok {
		set[photoID] = ts
	}
	return nil
}

func (f *fakePhotoIndex) Remove(ctx context.Context, ownerID int64, photoID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.owners[ownerID], photoID)
	return nil
}

func (f *fakePhotoIndex) Window(ctx context.Context, ownerID int64, offset, limit int) ([]uuid.UUID, int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows++
	if f.err != nil {
		return nil, 0, false, f.err
	}

	set, ok := f.owners[ownerID]
	if !ok {
		return nil, 0, false, nil
	}
	scores := make([]cache.PhotoScore, 0, len(set))
	for id, ts := range set {
		scores = append(scores, cache.PhotoScore{PhotoID: id, Timestamp: ts})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Timestamp != scores[j].Timestamp {
			return scores[i].Timestamp > scores[j].Timestamp
		}
		return scores[i].PhotoID.String() > scores[j].PhotoID.String()
	})

	ids := []uuid.UUID{}
	for i := offset; i < len(scores) && i < offset+limit; i++ {
		ids = append(ids, scores[i].PhotoID)
	}
	return ids, len(scores), true, nil
}

func (f *fakePhotoIndex) Warm(ctx context.Context, ownerID int64, photos []cache.PhotoScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warms++
	if len(photos) == 0 {
		delete(f.owners, ownerID)
		return nil
	}
	set := make(map[uuid.UUID]int64, len(photos))
	for _, p := range photos {
		set[p.PhotoID] = p.Timestamp
	}
	f.owners[ownerID] = set
	return nil
}

type failingUserRepository struct{}

func (failingUserRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	return nil, errors.New("directory unavailable")
}

func (failingUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return false, errors.New("directory unavailable")
}

// =============================================================================
// TEST ENVIRONMENT
// =============================================================================

const (
	alice int64 = iota + 1
	bob
	carol
	dave
)

type testEnv struct {
	photos    repository.PhotoRepository
	notifRepo repository.NotificationRepository
	users     *repository.MemoryUserRepository
	storage   *fakeStorage
	publisher *recordingPublisher

	interaction   *InteractionService
	notifications *NotificationService
	gallery       *GalleryService
}

// newTestEnv wires the services over the in-memory store with fanout running
// inline, the way the server runs without Redis.
func newTestEnv(t *testing.T, index cache.PhotoIndex) *testEnv {
	t.Helper()

	log := logger.Nop()
	env := &testEnv{
		photos:    repository.NewMemoryPhotoRepository(),
		notifRepo: repository.NewMemoryNotificationRepository(),
		users: repository.NewMemoryUserRepository(
			model.UserSummary{ID: alice, FirstName: "Alice", LastName: "A"},
			model.UserSummary{ID: bob, FirstName: "Bob", LastName: "B"},
			model.UserSummary{ID: carol, FirstName: "Carol", LastName: "C"},
			model.UserSummary{ID: dave, FirstName: "Dave", LastName: "D"},
		),
		storage: &fakeStorage{},
	}

	env.notifications = NewNotificationService(env.notifRepo, env.photos, env.users, 100, log)
	env.publisher = &recordingPublisher{forward: worker.NewHandler(env.notifications, log)}
	env.interaction = NewInteractionService(env.photos, env.users, env.storage, index, env.publisher, log)
	env.gallery = NewGalleryService(env.photos, env.users, index, 100, log)
	return env
}

func (e *testEnv) upload(t *testing.T, ownerID int64) *model.Photo {
	t.Helper()
	file, header := newUpload([]byte("jpeg bytes"))
	photo, err := e.interaction.UploadPhoto(context.Background(), ownerID, file, header)
	if err != nil {
		t.Fatalf("UploadPhoto: %v", err)
	}
	return photo
}

func (e *testEnv) inbox(t *testing.T, recipientID int64) []model.Notification {
	t.Helper()
	list, err := e.notifRepo.ListByRecipient(context.Background(), recipientID, 0, 100)
	if err != nil {
		t.Fatalf("ListByRecipient: %v", err)
	}
	return list
}
