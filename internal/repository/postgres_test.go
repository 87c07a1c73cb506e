package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"photoshare/internal/model"
)

// setupTestPostgres connects to TEST_DATABASE_URL and applies the schema.
// Tests are skipped when it is not set.
func setupTestPostgres(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres tests")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Postgres not available, skipping test: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func TestPostgresPhotoRepository(t *testing.T) {
	db := setupTestPostgres(t)
	runPhotoRepositoryTests(t, NewPhotoRepository(db))
}

func TestPostgresNotificationRepository(t *testing.T) {
	db := setupTestPostgres(t)
	runNotificationRepositoryTests(t, NewNotificationRepository(db))
}

func TestPostgresUserRepository(t *testing.T) {
	db := setupTestPostgres(t)
	ctx := context.Background()

	var id int64
	err := db.QueryRowxContext(ctx,
		`INSERT INTO users (first_name, last_name) VALUES ($1, $2) RETURNING id`, "Grace", "Hopper",
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE id = $1`, id) })

	repo := NewUserRepository(db)

	summaries, err := repo.GetSummaries(ctx, []int64{id, -1})
	if err != nil {
		t.Fatalf("GetSummaries: %v", err)
	}
	want := model.UserSummary{ID: id, FirstName: "Grace", LastName: "Hopper"}
	if len(summaries) != 1 || summaries[id] != want {
		t.Errorf("GetSummaries = %+v, want only %+v", summaries, want)
	}

	if ok, err := repo.Exists(ctx, id); err != nil || !ok {
		t.Errorf("Exists(%d) = %v, %v", id, ok, err)
	}
	if ok, err := repo.Exists(ctx, -1); err != nil || ok {
		t.Errorf("Exists(-1) = %v, %v", ok, err)
	}
}
