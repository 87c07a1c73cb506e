package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"photoshare/internal/cache"
	"photoshare/internal/model"
)

const photoColumns = `id, owner_id, file_key, file_url, caption, created_at`

type photoRepository struct {
	db *sqlx.DB
}

func NewPhotoRepository(db *sqlx.DB) PhotoRepository {
	return &photoRepository{db: db}
}

// Create inserts a photo with an empty caption, no likes and no comments.
func (r *photoRepository) Create(ctx context.Context, ownerID int64, file model.FileRef) (*model.Photo, error) {
	query := `
		INSERT INTO photos (id, owner_id, file_key, file_url)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + photoColumns

	var photo model.Photo
	err := r.db.GetContext(ctx, &photo, query, uuid.New(), ownerID, file.Key, file.URL)
	if err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}

	photo.Likes = []int64{}
	photo.Comments = []model.Comment{}
	return &photo, nil
}

// GetByID retrieves a photo with its likes, comments and replies.
func (r *photoRepository) GetByID(ctx context.Context, photoID uuid.UUID) (*model.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1`

	var photo model.Photo
	err := r.db.GetContext(ctx, &photo, query, photoID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}

	photos := []model.Photo{photo}
	if err := r.hydrate(ctx, photos); err != nil {
		return nil, err
	}
	return &photos[0], nil
}

func (r *photoRepository) GetOwner(ctx context.Context, photoID uuid.UUID) (int64, error) {
	var ownerID int64
	err := r.db.GetContext(ctx, &ownerID, `SELECT owner_id FROM photos WHERE id = $1`, photoID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPhotoNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get photo owner: %w", err)
	}
	return ownerID, nil
}

// GetByIDs retrieves multiple photos. Used for hydrating pages from the index.
func (r *photoRepository) GetByIDs(ctx context.Context, photoIDs []uuid.UUID) ([]model.Photo, error) {
	if len(photoIDs) == 0 {
		return []model.Photo{}, nil
	}

	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = ANY($1::uuid[])`
	var photos []model.Photo
	err := r.db.SelectContext(ctx, &photos, query, pq.Array(uuidStrings(photoIDs)))
	if err != nil {
		return nil, fmt.Errorf("get photos by ids: %w", err)
	}

	if err := r.hydrate(ctx, photos); err != nil {
		return nil, err
	}

	// Re-order photos to match input order
	photosMap := make(map[uuid.UUID]model.Photo, len(photos))
	for _, p := range photos {
		photosMap[p.ID] = p
	}
	ordered := make([]model.Photo, 0, len(photoIDs))
	for _, id := range photoIDs {
		if p, ok := photosMap[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *photoRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM photos WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return total, nil
}

func (r *photoRepository) Page(ctx context.Context, ownerID int64, page, pageSize int) ([]model.Photo, int, error) {
	total, err := r.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if offset >= total {
		return []model.Photo{}, total, nil
	}

	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE owner_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`
	var photos []model.Photo
	if err := r.db.SelectContext(ctx, &photos, query, ownerID, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("page photos: %w", err)
	}

	if err := r.hydrate(ctx, photos); err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}

// ListOwnerScores returns every photo id of an owner with its creation time,
// for warming the photo index.
func (r *photoRepository) ListOwnerScores(ctx context.Context, ownerID int64) ([]cache.PhotoScore, error) {
	var rows []struct {
		ID        uuid.UUID `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	query := `SELECT id, created_at FROM photos WHERE owner_id = $1`
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list owner photos: %w", err)
	}

	scores := make([]cache.PhotoScore, len(rows))
	for i, row := range rows {
		scores[i] = cache.PhotoScore{PhotoID: row.ID, Timestamp: row.CreatedAt.UnixMilli()}
	}
	return scores, nil
}

func (r *photoRepository) UpdateCaption(ctx context.Context, photoID uuid.UUID, caption string) (*model.Photo, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE photos SET caption = $2 WHERE id = $1`, photoID, caption)
	if err != nil {
		return nil, fmt.Errorf("update caption: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	} else if rows == 0 {
		return nil, model.ErrPhotoNotFound
	}
	return r.GetByID(ctx, photoID)
}

// Delete removes the photo. Likes, comments and replies go with it through
// ON DELETE CASCADE.
func (r *photoRepository) Delete(ctx context.Context, photoID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, photoID)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPhotoNotFound
	}
	return nil
}

// ToggleLike flips the (photo, user) like inside one transaction. The photo
// row lock serializes concurrent toggles on the same photo, and the CTE
// removes the like if present or inserts it otherwise in a single statement.
func (r *photoRepository) ToggleLike(ctx context.Context, photoID uuid.UUID, userID int64) (*model.LikeState, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.GetContext(ctx, &locked, `SELECT id FROM photos WHERE id = $1 FOR UPDATE`, photoID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock photo: %w", err)
	}

	query := `
		WITH removed AS (
			DELETE FROM photo_likes
			WHERE photo_id = $1 AND user_id = $2
			RETURNING user_id
		), added AS (
			INSERT INTO photo_likes (photo_id, user_id)
			SELECT $1, $2
			WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT DO NOTHING
			RETURNING user_id
		)
		SELECT EXISTS (SELECT 1 FROM added)
	`
	var liked bool
	if err := tx.GetContext(ctx, &liked, query, photoID, userID); err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	likes := []int64{}
	err = tx.SelectContext(ctx, &likes, `SELECT user_id FROM photo_likes WHERE photo_id = $1 ORDER BY user_id`, photoID)
	if err != nil {
		return nil, fmt.Errorf("get likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &model.LikeState{Liked: liked, LikeCount: len(likes), Likes: likes}, nil
}

// hydrate loads likes, comments and replies for the given photos in place.
func (r *photoRepository) hydrate(ctx context.Context, photos []model.Photo) error {
	if len(photos) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(photos))
	index := make(map[uuid.UUID]int, len(photos))
	for i := range photos {
		ids[i] = photos[i].ID
		index[photos[i].ID] = i
		photos[i].Likes = []int64{}
		photos[i].Comments = []model.Comment{}
	}
	arg := pq.Array(uuidStrings(ids))

	var likes []struct {
		PhotoID uuid.UUID `db:"photo_id"`
		UserID  int64     `db:"user_id"`
	}
	err := r.db.SelectContext(ctx, &likes, `
		SELECT photo_id, user_id FROM photo_likes
		WHERE photo_id = ANY($1::uuid[])
		ORDER BY user_id
	`, arg)
	if err != nil {
		return fmt.Errorf("get likes: %w", err)
	}
	for _, l := range likes {
		i := index[l.PhotoID]
		photos[i].Likes = append(photos[i].Likes, l.UserID)
	}

	var replies []model.Reply
	err = r.db.SelectContext(ctx, &replies, `
		SELECT id, comment_id, photo_id, author_id, text, created_at
		FROM comment_replies
		WHERE photo_id = ANY($1::uuid[])
		ORDER BY seq
	`, arg)
	if err != nil {
		return fmt.Errorf("get replies: %w", err)
	}
	repliesByComment := make(map[uuid.UUID][]model.Reply)
	for _, rp := range replies {
		repliesByComment[rp.CommentID] = append(repliesByComment[rp.CommentID], rp)
	}

	var comments []model.Comment
	err = r.db.SelectContext(ctx, &comments, `
		SELECT id, photo_id, author_id, text, created_at
		FROM photo_comments
		WHERE photo_id = ANY($1::uuid[])
		ORDER BY seq
	`, arg)
	if err != nil {
		return fmt.Errorf("get comments: %w", err)
	}
	for _, c := range comments {
		c.Replies = repliesByComment[c.ID]
		if c.Replies == nil {
			c.Replies = []model.Reply{}
		}
		i := index[c.PhotoID]
		photos[i].Comments = append(photos[i].Comments, c)
	}

	for i := range photos {
		photos[i].LikeCount = len(photos[i].Likes)
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
