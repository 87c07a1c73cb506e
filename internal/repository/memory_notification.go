package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"photoshare/internal/model"
)

type memoryNotification struct {
	n   model.Notification
	seq uint64
}

type memoryNotificationRepository struct {
	mu    sync.RWMutex
	seq   uint64
	items map[uuid.UUID]*memoryNotification
}

func NewMemoryNotificationRepository() NotificationRepository {
	return &memoryNotificationRepository{items: make(map[uuid.UUID]*memoryNotification)}
}

func (r *memoryNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, ok := r.items[n.ID]; ok {
		return nil
	}
	r.seq++
	stored := *n
	stored.Actor = nil
	stored.Photo = nil
	r.items[n.ID] = &memoryNotification{n: stored, seq: r.seq}
	return nil
}

func (r *memoryNotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, model.ErrNotificationNotFound
	}
	n := item.n
	return &n, nil
}

func (r *memoryNotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, offset, limit int) ([]model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*memoryNotification
	for _, item := range r.items {
		if item.n.RecipientID == recipientID {
			owned = append(owned, item)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].n.CreatedAt.Equal(owned[j].n.CreatedAt) {
			return owned[i].n.CreatedAt.After(owned[j].n.CreatedAt)
		}
		return owned[i].seq > owned[j].seq
	})

	notifications := []model.Notification{}
	for i := offset; i < len(owned) && i < offset+limit; i++ {
		notifications = append(notifications, owned[i].n)
	}
	return notifications, nil
}

func (r *memoryNotificationRepository) Counts(ctx context.Context, recipientID int64) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total, unread := 0, 0
	for _, item := range r.items {
		if item.n.RecipientID != recipientID {
			continue
		}
		total++
		if !item.n.IsRead {
			unread++
		}
	}
	return total, unread, nil
}

func (r *memoryNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return model.ErrNotificationNotFound
	}
	item.n.IsRead = true
	return nil
}

func (r *memoryNotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for _, item := range r.items {
		if item.n.RecipientID == recipientID && !item.n.IsRead {
			item.n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (r *memoryNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return model.ErrNotificationNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryNotificationRepository) DeleteByPhoto(ctx context.Context, photoID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, item := range r.items {
		if item.n.PhotoID == photoID {
			delete(r.items, id)
			deleted++
		}
	}
	return deleted, nil
}

// MemoryUserRepository is a fixed user directory, used by the memory store
// driver and by tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]model.UserSummary

	// AllowUnknown makes Exists report every positive id as registered.
	// Summaries are still only returned for registered users.
	AllowUnknown bool
}

func NewMemoryUserRepository(users ...model.UserSummary) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[int64]model.UserSummary, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

// Put registers or replaces a user.
func (r *MemoryUserRepository) Put(u model.UserSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *MemoryUserRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make(map[int64]model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			summaries[id] = u
		}
	}
	return summaries, nil
}

func (r *MemoryUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[id]
	return ok || (r.AllowUnknown && id > 0), nil
}
