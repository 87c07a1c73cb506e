package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"photoshare/internal/model"
)

// AddComment appends a comment. The INSERT ... SELECT only produces a row
// when the photo exists, so a concurrent photo delete cannot leave an orphan.
func (r *photoRepository) AddComment(ctx context.Context, photoID uuid.UUID, authorID int64, text string) (*model.Comment, error) {
	query := `
		INSERT INTO photo_comments (id, photo_id, author_id, text)
		SELECT $1, p.id, $3, $4 FROM photos p WHERE p.id = $2
		RETURNING id, photo_id, author_id, text, created_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, uuid.New(), photoID, authorID, text)
	if err == sql.ErrNoRows {
		return nil, model.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	comment.Replies = []model.Reply{}
	return &comment, nil
}

func (r *photoRepository) GetComment(ctx context.Context, photoID, commentID uuid.UUID) (*model.Comment, error) {
	query := `
		SELECT id, photo_id, author_id, text, created_at
		FROM photo_comments
		WHERE id = $1 AND photo_id = $2
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID, photoID)
	if err == sql.ErrNoRows {
		return nil, r.missing(ctx, photoID, nil, model.ErrCommentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	comment.Replies = []model.Reply{}
	err = r.db.SelectContext(ctx, &comment.Replies, `
		SELECT id, comment_id, photo_id, author_id, text, created_at
		FROM comment_replies
		WHERE comment_id = $1
		ORDER BY seq
	`, commentID)
	if err != nil {
		return nil, fmt.Errorf("get replies: %w", err)
	}
	return &comment, nil
}

// RemoveComment deletes a comment and, through ON DELETE CASCADE, its replies.
func (r *photoRepository) RemoveComment(ctx context.Context, photoID, commentID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM photo_comments WHERE id = $1 AND photo_id = $2
	`, commentID, photoID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return r.missing(ctx, photoID, nil, model.ErrCommentNotFound)
	}
	return nil
}

// AddReply appends a reply to a comment of the given photo.
func (r *photoRepository) AddReply(ctx context.Context, photoID, commentID uuid.UUID, authorID int64, text string) (*model.Reply, error) {
	query := `
		INSERT INTO comment_replies (id, comment_id, photo_id, author_id, text)
		SELECT $1, c.id, c.photo_id, $4, $5
		FROM photo_comments c
		WHERE c.id = $3 AND c.photo_id = $2
		RETURNING id, comment_id, photo_id, author_id, text, created_at
	`
	var reply model.Reply
	err := r.db.GetContext(ctx, &reply, query, uuid.New(), photoID, commentID, authorID, text)
	if err == sql.ErrNoRows {
		return nil, r.missing(ctx, photoID, nil, model.ErrCommentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("insert reply: %w", err)
	}
	return &reply, nil
}

func (r *photoRepository) GetReply(ctx context.Context, photoID, commentID, replyID uuid.UUID) (*model.Reply, error) {
	query := `
		SELECT id, comment_id, photo_id, author_id, text, created_at
		FROM comment_replies
		WHERE id = $1 AND comment_id = $2 AND photo_id = $3
	`
	var reply model.Reply
	err := r.db.GetContext(ctx, &reply, query, replyID, commentID, photoID)
	if err == sql.ErrNoRows {
		return nil, r.missing(ctx, photoID, &commentID, model.ErrReplyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reply: %w", err)
	}
	return &reply, nil
}

func (r *photoRepository) RemoveReply(ctx context.Context, photoID, commentID, replyID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM comment_replies WHERE id = $1 AND comment_id = $2 AND photo_id = $3
	`, replyID, commentID, photoID)
	if err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return r.missing(ctx, photoID, &commentID, model.ErrReplyNotFound)
	}
	return nil
}

// missing walks the path photo -> comment after a statement matched no rows
// and returns the not-found error for the first missing link, or leaf when
// every parent exists.
func (r *photoRepository) missing(ctx context.Context, photoID uuid.UUID, commentID *uuid.UUID, leaf error) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM photos WHERE id = $1)`, photoID)
	if err != nil {
		return fmt.Errorf("check photo exists: %w", err)
	}
	if !exists {
		return model.ErrPhotoNotFound
	}

	if commentID != nil {
		err = r.db.GetContext(ctx, &exists, `
			SELECT EXISTS(SELECT 1 FROM photo_comments WHERE id = $1 AND photo_id = $2)
		`, *commentID, photoID)
		if err != nil {
			return fmt.Errorf("check comment exists: %w", err)
		}
		if !exists {
			return model.ErrCommentNotFound
		}
	}
	return leaf
}
