package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recipenav/recipenav/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		PasswordHash: "secret-hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{
		ID:           uuid.NewString(),
		Username:     user.Username,
		PasswordHash: "another-hash",
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate username, got %v", err)
	}

	fetched, err := repo.FindByUsername(ctx, user.Username)
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}

	if fetched.ID != user.ID || fetched.PasswordHash != user.PasswordHash {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	if _, err := repo.FindByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown username, got %v", err)
	}
}

func TestPostgresTokenStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner")

	store := NewPostgresTokenStore(testPool)
	token := uuid.NewString()

	if err := store.Save(ctx, token, user.ID); err != nil {
		t.Fatalf("save token: %v", err)
	}

	resolved, err := store.FindUser(ctx, token)
	if err != nil {
		t.Fatalf("find user by token: %v", err)
	}
	if resolved.ID != user.ID || resolved.Username != user.Username {
		t.Fatalf("unexpected user resolved: %+v", resolved)
	}

	other := createTestUser(t, userRepo, "other")
	if err := store.Save(ctx, token, other.ID); err != nil {
		t.Fatalf("re-save token: %v", err)
	}
	resolved, err = store.FindUser(ctx, token)
	if err != nil {
		t.Fatalf("find user after re-save: %v", err)
	}
	if resolved.ID != other.ID {
		t.Fatalf("expected token to follow the new user, got %+v", resolved)
	}

	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if _, err := store.FindUser(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("deleting twice should be a no-op, got %v", err)
	}
}

func TestPostgresRecipeRepository_CreateListAndGet(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	author := createTestUser(t, userRepo, "author")
	other := createTestUser(t, userRepo, "other")

	repo := NewPostgresRecipeRepository(testPool)

	older := createTestRecipe(t, repo, author, "Pancakes", time.Now().UTC().Add(-time.Hour))
	newer := createTestRecipe(t, repo, other, "Caesar Salad", time.Now().UTC())

	listed, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(listed))
	}
	if listed[0].ID != newer.ID || listed[1].ID != older.ID {
		t.Fatalf("expected newest-first order, got %s then %s", listed[0].ID, listed[1].ID)
	}
	if listed[0].Author != "other" {
		t.Fatalf("expected author username to be resolved, got %q", listed[0].Author)
	}

	mine, err := repo.ListByOwner(ctx, author.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != older.ID {
		t.Fatalf("expected only the author's recipe, got %+v", mine)
	}

	fetched, err := repo.Get(ctx, older.ID, "")
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if fetched.Title != "Pancakes" || fetched.AuthorID != author.ID {
		t.Fatalf("unexpected recipe fetched: %+v", fetched)
	}
	if len(fetched.Ingredients) != 2 {
		t.Fatalf("expected ingredients round-trip, got %v", fetched.Ingredients)
	}

	if _, err := repo.Get(ctx, uuid.NewString(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown recipe, got %v", err)
	}
}

func TestPostgresRecipeRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	author := createTestUser(t, userRepo, "author")

	repo := NewPostgresRecipeRepository(testPool)
	recipe := createTestRecipe(t, repo, author, "Pancakes", time.Now().UTC())

	recipe.Title = "Banana Pancakes"
	recipe.Ingredients = []string{"flour", "eggs", "banana"}
	if err := repo.Update(ctx, recipe); err != nil {
		t.Fatalf("update recipe: %v", err)
	}

	fetched, err := repo.Get(ctx, recipe.ID, "")
	if err != nil {
		t.Fatalf("get updated recipe: %v", err)
	}
	if fetched.Title != "Banana Pancakes" || len(fetched.Ingredients) != 3 {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	missing := recipe
	missing.ID = uuid.NewString()
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing recipe, got %v", err)
	}

	if err := repo.Delete(ctx, recipe.ID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	if err := repo.Delete(ctx, recipe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresRecipeRepository_ToggleLike(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	author := createTestUser(t, userRepo, "author")
	fan := createTestUser(t, userRepo, "fan")
	otherFan := createTestUser(t, userRepo, "otherfan")

	repo := NewPostgresRecipeRepository(testPool)
	recipe := createTestRecipe(t, repo, author, "Pancakes", time.Now().UTC())

	status, err := repo.ToggleLike(ctx, fan.ID, recipe.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !status.LikedByUser || status.Likes != 1 {
		t.Fatalf("expected first toggle to like, got %+v", status)
	}

	status, err = repo.ToggleLike(ctx, otherFan.ID, recipe.ID)
	if err != nil {
		t.Fatalf("second user toggle: %v", err)
	}
	if status.Likes != 2 {
		t.Fatalf("expected 2 likes, got %+v", status)
	}

	status, err = repo.ToggleLike(ctx, fan.ID, recipe.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if status.LikedByUser || status.Likes != 1 {
		t.Fatalf("expected unlike to drop the count, got %+v", status)
	}

	fetched, err := repo.Get(ctx, recipe.ID, otherFan.ID)
	if err != nil {
		t.Fatalf("get with viewer: %v", err)
	}
	if !fetched.LikedByUser || fetched.Likes != 1 {
		t.Fatalf("expected viewer-resolved like metadata, got %+v", fetched)
	}

	fetched, err = repo.Get(ctx, recipe.ID, fan.ID)
	if err != nil {
		t.Fatalf("get with unliking viewer: %v", err)
	}
	if fetched.LikedByUser {
		t.Fatalf("expected likedByUser false after unlike, got %+v", fetched)
	}

	if _, err := repo.ToggleLike(ctx, fan.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound toggling unknown recipe, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE recipe_likes, recipes, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "password-hash",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestRecipe(t *testing.T, repo *PostgresRecipeRepository, author models.User, title string, createdAt time.Time) models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "test description",
		Category:    "Breakfast",
		Ingredients: []string{"flour", "eggs"},
		AuthorID:    author.ID,
		Author:      author.Username,
		CreatedAt:   createdAt,
	}
	if err := repo.Create(context.Background(), recipe); err != nil {
		t.Fatalf("create test recipe: %v", err)
	}
	return recipe
}
