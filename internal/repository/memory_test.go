package repository

import (
	"context"
	"testing"

	"photoshare/internal/model"
)

func TestMemoryPhotoRepository(t *testing.T) {
	runPhotoRepositoryTests(t, NewMemoryPhotoRepository())
}

func TestMemoryNotificationRepository(t *testing.T) {
	runNotificationRepositoryTests(t, NewMemoryNotificationRepository())
}

func TestMemoryPhotoRepository_SnapshotsAreDetached(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPhotoRepository()
	photo := createPhoto(t, repo, 1)
	if _, err := repo.AddComment(ctx, photo.ID, 2, "original"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	got, err := repo.GetByID(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.Comments[0].Text = "mutated"
	got.Likes = append(got.Likes, 99)

	again, err := repo.GetByID(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if again.Comments[0].Text != "original" || len(again.Likes) != 0 {
		t.Errorf("caller mutation leaked into the store: %+v", again)
	}
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository(model.UserSummary{ID: 1, FirstName: "Ada", LastName: "Lovelace"})

	summaries, err := repo.GetSummaries(ctx, []int64{1, 2})
	if err != nil {
		t.Fatalf("GetSummaries: %v", err)
	}
	if len(summaries) != 1 || summaries[1].FirstName != "Ada" {
		t.Errorf("unexpected summaries: %+v", summaries)
	}

	tests := []struct {
		name         string
		allowUnknown bool
		id           int64
		want         bool
	}{
		{"registered", false, 1, true},
		{"unknown", false, 2, false},
		{"unknown allowed", true, 2, true},
		{"non-positive never exists", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.AllowUnknown = tt.allowUnknown
			got, err := repo.Exists(ctx, tt.id)
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
