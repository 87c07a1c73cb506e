package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"photoshare/internal/cache"
	"photoshare/internal/model"
)

// The in-memory store keeps every nested entity in an arena keyed by its id.
// Display order comes from a per-store sequence number assigned at creation,
// so removing an entry never shifts its siblings.

type memReply struct {
	reply model.Reply
	seq   uint64
}

type memComment struct {
	comment model.Comment
	seq     uint64
	replies map[uuid.UUID]*memReply
}

type memPhoto struct {
	photo    model.Photo
	seq      uint64
	likes    map[int64]struct{}
	comments map[uuid.UUID]*memComment
}

type memoryPhotoRepository struct {
	mu      sync.RWMutex
	seq     uint64
	photos  map[uuid.UUID]*memPhoto
	now     func() time.Time
	created time.Time
}

// NewMemoryPhotoRepository returns a process-local aggregate store. Each
// operation holds the store lock, which makes it atomic.
func NewMemoryPhotoRepository() PhotoRepository {
	return &memoryPhotoRepository{
		photos: make(map[uuid.UUID]*memPhoto),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryPhotoRepository) next() uint64 {
	r.seq++
	return r.seq
}

// createdAt hands out photo creation times that strictly increase at
// millisecond resolution, the precision photo index scores keep.
func (r *memoryPhotoRepository) createdAt() time.Time {
	t := r.now().Truncate(time.Millisecond)
	if !t.After(r.created) {
		t = r.created.Add(time.Millisecond)
	}
	r.created = t
	return t
}

func (r *memoryPhotoRepository) Create(ctx context.Context, ownerID int64, file model.FileRef) (*model.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &memPhoto{
		photo: model.Photo{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			FileKey:   file.Key,
			FileURL:   file.URL,
			CreatedAt: r.createdAt(),
		},
		seq:      r.next(),
		likes:    make(map[int64]struct{}),
		comments: make(map[uuid.UUID]*memComment),
	}
	r.photos[p.photo.ID] = p
	return p.snapshot(), nil
}

func (r *memoryPhotoRepository) GetByID(ctx context.Context, photoID uuid.UUID) (*model.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.photos[photoID]
	if !ok {
		return nil, model.ErrPhotoNotFound
	}
	return p.snapshot(), nil
}

func (r *memoryPhotoRepository) GetOwner(ctx context.Context, photoID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.photos[photoID]
	if !ok {
		return 0, model.ErrPhotoNotFound
	}
	return p.photo.OwnerID, nil
}

func (r *memoryPhotoRepository) GetByIDs(ctx context.Context, photoIDs []uuid.UUID) ([]model.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	photos := make([]model.Photo, 0, len(photoIDs))
	for _, id := range photoIDs {
		if p, ok := r.photos[id]; ok {
			photos = append(photos, *p.snapshot())
		}
	}
	return photos, nil
}

func (r *memoryPhotoRepository) Page(ctx context.Context, ownerID int64, page, pageSize int) ([]model.Photo, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.ownedNewestFirst(ownerID)
	total := len(owned)
	offset := (page - 1) * pageSize
	if offset >= total {
		return []model.Photo{}, total, nil
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	photos := make([]model.Photo, 0, end-offset)
	for _, p := range owned[offset:end] {
		photos = append(photos, *p.snapshot())
	}
	return photos, total, nil
}

func (r *memoryPhotoRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.photos {
		if p.photo.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *memoryPhotoRepository) ListOwnerScores(ctx context.Context, ownerID int64) ([]cache.PhotoScore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.ownedNewestFirst(ownerID)
	scores := make([]cache.PhotoScore, len(owned))
	for i, p := range owned {
		scores[i] = cache.PhotoScore{PhotoID: p.photo.ID, Timestamp: p.photo.CreatedAt.UnixMilli()}
	}
	return scores, nil
}

func (r *memoryPhotoRepository) ownedNewestFirst(ownerID int64) []*memPhoto {
	var owned []*memPhoto
	for _, p := range r.photos {
		if p.photo.OwnerID == ownerID {
			owned = append(owned, p)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].photo.CreatedAt.Equal(owned[j].photo.CreatedAt) {
			return owned[i].photo.CreatedAt.After(owned[j].photo.CreatedAt)
		}
		return owned[i].seq > owned[j].seq
	})
	return owned
}

func (r *memoryPhotoRepository) UpdateCaption(ctx context.Context, photoID uuid.UUID, caption string) (*model.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.photos[photoID]
	if !ok {
		return nil, model.ErrPhotoNotFound
	}
	p.photo.Caption = caption
	return p.snapshot(), nil
}

func (r *memoryPhotoRepository) Delete(ctx context.Context, photoID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.photos[photoID]; !ok {
		return model.ErrPhotoNotFound
	}
	delete(r.photos, photoID)
	return nil
}

func (r *memoryPhotoRepository) ToggleLike(ctx context.Context, photoID uuid.UUID, userID int64) (*model.LikeState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.photos[photoID]
	if !ok {
		return nil, model.ErrPhotoNotFound
	}

	_, present := p.likes[userID]
	if present {
		delete(p.likes, userID)
	} else {
		p.likes[userID] = struct{}{}
	}

	likes := p.sortedLikes()
	return &model.LikeState{Liked: !present, LikeCount: len(likes), Likes: likes}, nil
}

func (r *memoryPhotoRepository) AddComment(ctx context.Context, photoID uuid.UUID, authorID int64, text string) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.photos[photoID]
	if !ok {
		return nil, model.ErrPhotoNotFound
	}

	c := &memComment{
		comment: model.Comment{
			ID:        uuid.New(),
			PhotoID:   photoID,
			AuthorID:  authorID,
			Text:      text,
			CreatedAt: r.now(),
		},
		seq:     r.next(),
		replies: make(map[uuid.UUID]*memReply),
	}
	p.comments[c.comment.ID] = c
	return c.snapshot(), nil
}

func (r *memoryPhotoRepository) GetComment(ctx context.Context, photoID, commentID uuid.UUID) (*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.resolveComment(photoID, commentID)
	if err != nil {
		return nil, err
	}
	return c.snapshot(), nil
}

func (r *memoryPhotoRepository) RemoveComment(ctx context.Context, photoID, commentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.resolveComment(photoID, commentID); err != nil {
		return err
	}
	delete(r.photos[photoID].comments, commentID)
	return nil
}

func (r *memoryPhotoRepository) AddReply(ctx context.Context, photoID, commentID uuid.UUID, authorID int64, text string) (*model.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.resolveComment(photoID, commentID)
	if err != nil {
		return nil, err
	}

	rp := &memReply{
		reply: model.Reply{
			ID:        uuid.New(),
			CommentID: commentID,
			PhotoID:   photoID,
			AuthorID:  authorID,
			Text:      text,
			CreatedAt: r.now(),
		},
		seq: r.next(),
	}
	c.replies[rp.reply.ID] = rp
	reply := rp.reply
	return &reply, nil
}

func (r *memoryPhotoRepository) GetReply(ctx context.Context, photoID, commentID, replyID uuid.UUID) (*model.Reply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.resolveComment(photoID, commentID)
	if err != nil {
		return nil, err
	}
	rp, ok := c.replies[replyID]
	if !ok {
		return nil, model.ErrReplyNotFound
	}
	reply := rp.reply
	return &reply, nil
}

func (r *memoryPhotoRepository) RemoveReply(ctx context.Context, photoID, commentID, replyID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.resolveComment(photoID, commentID)
	if err != nil {
		return err
	}
	if _, ok := c.replies[replyID]; !ok {
		return model.ErrReplyNotFound
	}
	delete(c.replies, replyID)
	return nil
}

// resolveComment must be called with the lock held.
func (r *memoryPhotoRepository) resolveComment(photoID, commentID uuid.UUID) (*memComment, error) {
	p, ok := r.photos[photoID]
	if !ok {
		return nil, model.ErrPhotoNotFound
	}
	c, ok := p.comments[commentID]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	return c, nil
}

func (p *memPhoto) sortedLikes() []int64 {
	likes := make([]int64, 0, len(p.likes))
	for id := range p.likes {
		likes = append(likes, id)
	}
	sort.Slice(likes, func(i, j int) bool { return likes[i] < likes[j] })
	return likes
}

// snapshot copies the photo so callers never share arena memory.
func (p *memPhoto) snapshot() *model.Photo {
	photo := p.photo
	photo.Likes = p.sortedLikes()
	photo.LikeCount = len(photo.Likes)

	comments := make([]*memComment, 0, len(p.comments))
	for _, c := range p.comments {
		comments = append(comments, c)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].seq < comments[j].seq })

	photo.Comments = make([]model.Comment, len(comments))
	for i, c := range comments {
		photo.Comments[i] = *c.snapshot()
	}
	return &photo
}

func (c *memComment) snapshot() *model.Comment {
	comment := c.comment

	replies := make([]*memReply, 0, len(c.replies))
	for _, rp := range c.replies {
		replies = append(replies, rp)
	}
	sort.Slice(replies, func(i, j int) bool { return replies[i].seq < replies[j].seq })

	comment.Replies = make([]model.Reply, len(replies))
	for i, rp := range replies {
		comment.Replies[i] = rp.reply
	}
	return &comment
}
