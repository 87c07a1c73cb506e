package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"photoshare/internal/model"
)

// =============================================================================
// Shared behaviour, run against every backend
// =============================================================================

var userSeq atomic.Int64

func init() {
	// Distinct ids per run keep persistent test databases isolated.
	userSeq.Store(time.Now().UnixNano() % 1_000_000_000 * 1000)
}

func newUserID() int64 {
	return userSeq.Add(1)
}

func createPhoto(t *testing.T, repo PhotoRepository, ownerID int64) *model.Photo {
	t.Helper()
	key := "photos/test/" + uuid.NewString() + ".jpg"
	photo, err := repo.Create(context.Background(), ownerID, model.FileRef{Key: key, URL: "https://cdn.test/" + key})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return photo
}

func runPhotoRepositoryTests(t *testing.T, repo PhotoRepository) {
	t.Run("ToggleLikeRoundTrip", func(t *testing.T) { testToggleLikeRoundTrip(t, repo) })
	t.Run("ConcurrentToggles", func(t *testing.T) { testConcurrentToggles(t, repo) })
	t.Run("SameUserConcurrentToggles", func(t *testing.T) { testSameUserConcurrentToggles(t, repo) })
	t.Run("ConcurrentComments", func(t *testing.T) { testConcurrentComments(t, repo) })
	t.Run("OwnerAndCount", func(t *testing.T) { testOwnerAndCount(t, repo) })
	t.Run("CommentsAndReplies", func(t *testing.T) { testCommentsAndReplies(t, repo) })
	t.Run("NotFoundPrecedence", func(t *testing.T) { testNotFoundPrecedence(t, repo) })
	t.Run("PageCompleteness", func(t *testing.T) { testPageCompleteness(t, repo) })
	t.Run("GetByIDsOrder", func(t *testing.T) { testGetByIDsOrder(t, repo) })
	t.Run("CaptionAndDelete", func(t *testing.T) { testCaptionAndDelete(t, repo) })
}

func testToggleLikeRoundTrip(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	owner, liker := newUserID(), newUserID()
	photo := createPhoto(t, repo, owner)

	state, err := repo.ToggleLike(ctx, photo.ID, liker)
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if !state.Liked || state.LikeCount != 1 || len(state.Likes) != 1 || state.Likes[0] != liker {
		t.Fatalf("after first toggle got %+v", state)
	}

	state, err = repo.ToggleLike(ctx, photo.ID, liker)
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if state.Liked || state.LikeCount != 0 || len(state.Likes) != 0 {
		t.Fatalf("after second toggle got %+v", state)
	}

	if _, err := repo.ToggleLike(ctx, uuid.New(), liker); !errors.Is(err, model.ErrPhotoNotFound) {
		t.Errorf("toggle on missing photo: expected ErrPhotoNotFound, got %v", err)
	}
}

func testConcurrentToggles(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	photo := createPhoto(t, repo, newUserID())

	const likers = 20
	var wg sync.WaitGroup
	errs := make(chan error, likers)
	for i := 0; i < likers; i++ {
		userID := newUserID()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ToggleLike(ctx, photo.ID, userID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent ToggleLike: %v", err)
	}

	got, err := repo.GetByID(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LikeCount != likers || len(got.Likes) != likers {
		t.Errorf("expected %d likes, got count=%d len=%d", likers, got.LikeCount, len(got.Likes))
	}
}

// Every toggle by one user must flip the state exactly once, so an even
// number of them leaves the photo unliked with half of them reporting a like.
func testSameUserConcurrentToggles(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	photo := createPhoto(t, repo, newUserID())
	liker := newUserID()

	const pairs = 10
	var (
		wg    sync.WaitGroup
		liked atomic.Int64
	)
	errs := make(chan error, 2*pairs)
	for i := 0; i < 2*pairs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := repo.ToggleLike(ctx, photo.ID, liker)
			if err != nil {
				errs <- err
				return
			}
			if state.Liked {
				liked.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent ToggleLike: %v", err)
	}

	if liked.Load() != pairs {
		t.Errorf("expected %d toggles to report liked, got %d", pairs, liked.Load())
	}
	got, err := repo.GetByID(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LikeCount != 0 || len(got.Likes) != 0 {
		t.Errorf("expected the photo to end unliked, got %v", got.Likes)
	}
}

func testConcurrentComments(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	photo := createPhoto(t, repo, newUserID())

	const writers = 20
	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, writers)
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		author := newUserID()
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := repo.AddComment(ctx, photo.ID, author, "concurrent")
			if err != nil {
				errs <- err
				return
			}
			ids <- c.ID
		}()
	}
	wg.Wait()
	close(errs)
	close(ids)
	for err := range errs {
		t.Fatalf("concurrent AddComment: %v", err)
	}

	got, err := repo.GetByID(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	stored := make(map[uuid.UUID]bool, len(got.Comments))
	for _, c := range got.Comments {
		stored[c.ID] = true
	}
	for id := range ids {
		if !stored[id] {
			t.Errorf("comment %s was lost", id)
		}
	}
	if len(got.Comments) != writers {
		t.Errorf("expected %d comments, got %d", writers, len(got.Comments))
	}
}

func testOwnerAndCount(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	owner := newUserID()
	photo := createPhoto(t, repo, owner)
	createPhoto(t, repo, owner)

	got, err := repo.GetOwner(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetOwner: %v", err)
	}
	if got != owner {
		t.Errorf("GetOwner = %d, want %d", got, owner)
	}
	if _, err := repo.GetOwner(ctx, uuid.New()); !errors.Is(err, model.ErrPhotoNotFound) {
		t.Errorf("expected ErrPhotoNotFound, got %v", err)
	}

	n, err := repo.CountByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("CountByOwner: %v", err)
	}
	if n != 2 {
		t.Errorf("CountByOwner = %d, want 2", n)
	}
	if n, _ := repo.CountByOwner(ctx, newUserID()); n != 0 {
		t.Errorf("CountByOwner for a user without photos = %d, want 0", n)
	}
}

func testCommentsAndReplies(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	owner, alice, bob := newUserID(), newUserID(), newUserID()
	photo := createPhoto(t, repo, owner)

	first, err := repo.AddComment(ctx, photo.ID, alice, "first")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	second, err := repo.AddComment(ctx, photo.ID, bob, "second")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	reply, err := repo.AddReply(ctx, photo.ID, first.ID, bob, "reply to first")
	if err != nil {
		t.Fatalf("AddReply: %v", err)
	}
	if reply.CommentID != first.ID || reply.PhotoID != photo.ID || reply.AuthorID != bob {
		t.Errorf("reply fields not set: %+v", reply)
	}

	got, err := repo.GetByID(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Comments) != 2 || got.Comments[0].ID != first.ID || got.Comments[1].ID != second.ID {
		t.Fatalf("comments not in insertion order: %+v", got.Comments)
	}
	if len(got.Comments[0].Replies) != 1 || got.Comments[0].Replies[0].ID != reply.ID {
		t.Fatalf("reply missing from first comment: %+v", got.Comments[0].Replies)
	}
	if len(got.Comments[1].Replies) != 0 {
		t.Errorf("second comment should have no replies")
	}

	gotReply, err := repo.GetReply(ctx, photo.ID, first.ID, reply.ID)
	if err != nil || gotReply.Text != "reply to first" {
		t.Fatalf("GetReply: %+v, %v", gotReply, err)
	}

	if err := repo.RemoveComment(ctx, photo.ID, first.ID); err != nil {
		t.Fatalf("RemoveComment: %v", err)
	}
	if _, err := repo.GetReply(ctx, photo.ID, first.ID, reply.ID); !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("reply of removed comment: expected ErrCommentNotFound, got %v", err)
	}

	got, err = repo.GetByID(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].ID != second.ID {
		t.Errorf("sibling comment affected by removal: %+v", got.Comments)
	}

	reply2, err := repo.AddReply(ctx, photo.ID, second.ID, alice, "another")
	if err != nil {
		t.Fatalf("AddReply: %v", err)
	}
	if err := repo.RemoveReply(ctx, photo.ID, second.ID, reply2.ID); err != nil {
		t.Fatalf("RemoveReply: %v", err)
	}
	if err := repo.RemoveReply(ctx, photo.ID, second.ID, reply2.ID); !errors.Is(err, model.ErrReplyNotFound) {
		t.Errorf("second RemoveReply: expected ErrReplyNotFound, got %v", err)
	}
}

func testNotFoundPrecedence(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	user := newUserID()
	photo := createPhoto(t, repo, user)
	comment, err := repo.AddComment(ctx, photo.ID, user, "hello")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"comment on missing photo", func() error {
			_, err := repo.AddComment(ctx, uuid.New(), user, "x")
			return err
		}, model.ErrPhotoNotFound},
		{"reply on missing photo", func() error {
			_, err := repo.AddReply(ctx, uuid.New(), comment.ID, user, "x")
			return err
		}, model.ErrPhotoNotFound},
		{"reply on missing comment", func() error {
			_, err := repo.AddReply(ctx, photo.ID, uuid.New(), user, "x")
			return err
		}, model.ErrCommentNotFound},
		{"get reply on missing photo", func() error {
			_, err := repo.GetReply(ctx, uuid.New(), uuid.New(), uuid.New())
			return err
		}, model.ErrPhotoNotFound},
		{"get missing reply", func() error {
			_, err := repo.GetReply(ctx, photo.ID, comment.ID, uuid.New())
			return err
		}, model.ErrReplyNotFound},
		{"remove missing comment", func() error {
			return repo.RemoveComment(ctx, photo.ID, uuid.New())
		}, model.ErrCommentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func testPageCompleteness(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	owner := newUserID()

	const n, pageSize = 7, 3
	created := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		created = append(created, createPhoto(t, repo, owner).ID)
		// Document stores keep millisecond timestamps.
		time.Sleep(2 * time.Millisecond)
	}
	// Unrelated owner must not leak into the window.
	createPhoto(t, repo, newUserID())

	seen := make(map[uuid.UUID]bool)
	var ordered []uuid.UUID
	for page := 1; page <= 3; page++ {
		photos, total, err := repo.Page(ctx, owner, page, pageSize)
		if err != nil {
			t.Fatalf("Page(%d): %v", page, err)
		}
		if total != n {
			t.Fatalf("Page(%d) total = %d, want %d", page, total, n)
		}
		for _, p := range photos {
			if seen[p.ID] {
				t.Fatalf("photo %s returned twice", p.ID)
			}
			seen[p.ID] = true
			ordered = append(ordered, p.ID)
		}
	}
	if len(ordered) != n {
		t.Fatalf("iterated %d photos, want %d", len(ordered), n)
	}
	if ordered[0] != created[n-1] || ordered[n-1] != created[0] {
		t.Errorf("expected newest first")
	}

	photos, total, err := repo.Page(ctx, owner, 4, pageSize)
	if err != nil {
		t.Fatalf("Page past end: %v", err)
	}
	if len(photos) != 0 || total != n {
		t.Errorf("page past end: got %d photos, total %d", len(photos), total)
	}

	scores, err := repo.ListOwnerScores(ctx, owner)
	if err != nil {
		t.Fatalf("ListOwnerScores: %v", err)
	}
	if len(scores) != n {
		t.Errorf("ListOwnerScores returned %d entries, want %d", len(scores), n)
	}
}

func testGetByIDsOrder(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	owner := newUserID()
	a := createPhoto(t, repo, owner)
	b := createPhoto(t, repo, owner)

	photos, err := repo.GetByIDs(ctx, []uuid.UUID{b.ID, uuid.New(), a.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(photos) != 2 || photos[0].ID != b.ID || photos[1].ID != a.ID {
		t.Errorf("expected [b a], got %d photos", len(photos))
	}
}

func testCaptionAndDelete(t *testing.T, repo PhotoRepository) {
	ctx := context.Background()
	owner := newUserID()
	photo := createPhoto(t, repo, owner)
	if _, err := repo.AddComment(ctx, photo.ID, newUserID(), "nice"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	updated, err := repo.UpdateCaption(ctx, photo.ID, "sunset")
	if err != nil {
		t.Fatalf("UpdateCaption: %v", err)
	}
	if updated.Caption != "sunset" || len(updated.Comments) != 1 {
		t.Errorf("unexpected photo after caption update: %+v", updated)
	}

	if err := repo.Delete(ctx, photo.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, photo.ID); !errors.Is(err, model.ErrPhotoNotFound) {
		t.Errorf("GetByID after delete: expected ErrPhotoNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, photo.ID); !errors.Is(err, model.ErrPhotoNotFound) {
		t.Errorf("second Delete: expected ErrPhotoNotFound, got %v", err)
	}
	if _, err := repo.UpdateCaption(ctx, photo.ID, "x"); !errors.Is(err, model.ErrPhotoNotFound) {
		t.Errorf("UpdateCaption after delete: expected ErrPhotoNotFound, got %v", err)
	}
}

func runNotificationRepositoryTests(t *testing.T, repo NotificationRepository) {
	ctx := context.Background()
	recipient, actor := newUserID(), newUserID()
	photoID, otherPhotoID := uuid.New(), uuid.New()
	base := time.Now().UTC().Truncate(time.Millisecond)

	var created []*model.Notification
	for i, pid := range []uuid.UUID{photoID, photoID, otherPhotoID} {
		n := &model.Notification{
			RecipientID: recipient,
			ActorID:     actor,
			Kind:        model.NotificationKindComment,
			PhotoID:     pid,
			Content:     "hi",
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if n.ID == uuid.Nil {
			t.Fatalf("Create did not assign an id")
		}
		created = append(created, n)
	}

	list, err := repo.ListByRecipient(ctx, recipient, 0, 2)
	if err != nil {
		t.Fatalf("ListByRecipient: %v", err)
	}
	if len(list) != 2 || list[0].ID != created[2].ID || list[1].ID != created[1].ID {
		t.Fatalf("expected newest first window of 2, got %d", len(list))
	}

	total, unread, err := repo.Counts(ctx, recipient)
	if err != nil || total != 3 || unread != 3 {
		t.Fatalf("Counts = %d, %d, %v; want 3, 3", total, unread, err)
	}

	if err := repo.MarkRead(ctx, created[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	got, err := repo.GetByID(ctx, created[0].ID)
	if err != nil || !got.IsRead {
		t.Fatalf("GetByID after MarkRead: %+v, %v", got, err)
	}

	updated, err := repo.MarkAllRead(ctx, recipient)
	if err != nil || updated != 2 {
		t.Fatalf("MarkAllRead = %d, %v; want 2", updated, err)
	}

	deleted, err := repo.DeleteByPhoto(ctx, photoID)
	if err != nil || deleted != 2 {
		t.Fatalf("DeleteByPhoto = %d, %v; want 2", deleted, err)
	}

	if err := repo.Delete(ctx, created[2].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, created[2].ID); !errors.Is(err, model.ErrNotificationNotFound) {
		t.Errorf("second Delete: expected ErrNotificationNotFound, got %v", err)
	}
	if err := repo.MarkRead(ctx, uuid.New()); !errors.Is(err, model.ErrNotificationNotFound) {
		t.Errorf("MarkRead missing: expected ErrNotificationNotFound, got %v", err)
	}

	total, unread, err = repo.Counts(ctx, recipient)
	if err != nil || total != 0 || unread != 0 {
		t.Errorf("Counts after cleanup = %d, %d, %v", total, unread, err)
	}

	t.Run("CreateSameIDOnce", func(t *testing.T) {
		recipient := newUserID()
		id := uuid.New()
		for _, content := range []string{"first delivery", "redelivery"} {
			n := &model.Notification{
				ID:          id,
				RecipientID: recipient,
				ActorID:     actor,
				Kind:        model.NotificationKindComment,
				PhotoID:     photoID,
				Content:     content,
			}
			if err := repo.Create(ctx, n); err != nil {
				t.Fatalf("Create(%q): %v", content, err)
			}
		}

		total, _, err := repo.Counts(ctx, recipient)
		if err != nil || total != 1 {
			t.Fatalf("Counts = %d, %v; want 1", total, err)
		}
		got, err := repo.GetByID(ctx, id)
		if err != nil || got.Content != "first delivery" {
			t.Errorf("expected the first delivery to be kept, got %+v, %v", got, err)
		}
	})
}
