package service

import (
	"context"

	"github.com/google/uuid"

	"photoshare/internal/model"
	"photoshare/internal/queue"
)

// AddComment appends a comment to the photo and notifies its owner.
func (s *InteractionService) AddComment(ctx context.Context, photoID uuid.UUID, callerID int64, text string) (*model.Comment, error) {
	ownerID, err := s.photoRepo.GetOwner(ctx, photoID)
	if err != nil {
		return nil, err
	}

	text, err = normalizeText(text)
	if err != nil {
		return nil, err
	}

	comment, err := s.photoRepo.AddComment(ctx, photoID, callerID, text)
	if err != nil {
		return nil, err
	}

	if callerID != ownerID {
		s.emit(ctx, queue.NewPhotoCommentedEvent(callerID, photoID, ownerID, comment.Text))
	}

	s.authors.comment(ctx, comment)
	return comment, nil
}

// DeleteComment removes a comment with its replies. Only its author may do this.
func (s *InteractionService) DeleteComment(ctx context.Context, photoID, commentID uuid.UUID, callerID int64) error {
	comment, err := s.photoRepo.GetComment(ctx, photoID, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != callerID {
		return model.ErrNotCommentAuthor
	}
	return s.photoRepo.RemoveComment(ctx, photoID, commentID)
}

// AddReply appends a reply to a comment and notifies the comment's author.
func (s *InteractionService) AddReply(ctx context.Context, photoID, commentID uuid.UUID, callerID int64, text string) (*model.Reply, error) {
	ownerID, err := s.photoRepo.GetOwner(ctx, photoID)
	if err != nil {
		return nil, err
	}
	comment, err := s.photoRepo.GetComment(ctx, photoID, commentID)
	if err != nil {
		return nil, err
	}

	text, err = normalizeText(text)
	if err != nil {
		return nil, err
	}

	reply, err := s.photoRepo.AddReply(ctx, photoID, commentID, callerID, text)
	if err != nil {
		return nil, err
	}

	if callerID != comment.AuthorID {
		s.emit(ctx, queue.NewCommentRepliedEvent(callerID, photoID, ownerID, commentID, comment.AuthorID, reply.Text))
	}

	s.authors.reply(ctx, reply)
	return reply, nil
}

// DeleteReply removes a reply. Only its author may do this.
func (s *InteractionService) DeleteReply(ctx context.Context, photoID, commentID, replyID uuid.UUID, callerID int64) error {
	reply, err := s.photoRepo.GetReply(ctx, photoID, commentID, replyID)
	if err != nil {
		return err
	}
	if reply.AuthorID != callerID {
		return model.ErrNotReplyAuthor
	}
	return s.photoRepo.RemoveReply(ctx, photoID, commentID, replyID)
}
