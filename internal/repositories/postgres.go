package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/recipenav/recipenav/internal/db"
	"github.com/recipenav/recipenav/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for accounts.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new account.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, password_hash, created_at)
        VALUES ($1, $2, $3, $4)
    `, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByUsername fetches an account by its username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, username, password_hash, created_at
        FROM users
        WHERE username = $1
    `, username)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by username: %w", err)
	}

	return user, nil
}

// PostgresTokenStore persists bearer tokens to PostgreSQL.
type PostgresTokenStore struct {
	pool db.Pool
}

// NewPostgresTokenStore constructs a token store backed by PostgreSQL.
func NewPostgresTokenStore(pool db.Pool) *PostgresTokenStore {
	return &PostgresTokenStore{pool: pool}
}

// Save records an issued token for its user.
func (s *PostgresTokenStore) Save(ctx context.Context, token, userID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO sessions (token, user_id)
        VALUES ($1, $2)
        ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id
    `, token, userID)
	if err != nil {
		return fmt.Errorf("upsert session token: %w", err)
	}

	return nil
}

// FindUser resolves a bearer token to its account.
func (s *PostgresTokenStore) FindUser(ctx context.Context, token string) (models.User, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.password_hash, u.created_at
        FROM sessions s
        JOIN users u ON u.id = s.user_id
        WHERE s.token = $1
    `, token)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select session token: %w", err)
	}

	return user, nil
}

// Delete revokes a bearer token.
func (s *PostgresTokenStore) Delete(ctx context.Context, token string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

// PostgresRecipeRepository provides PostgreSQL-backed persistence for the
// recipe collection, including like counts.
type PostgresRecipeRepository struct {
	pool db.Pool
}

// NewPostgresRecipeRepository constructs a recipe repository backed by PostgreSQL.
func NewPostgresRecipeRepository(pool db.Pool) *PostgresRecipeRepository {
	return &PostgresRecipeRepository{pool: pool}
}

const recipeColumns = `
        r.id, r.title, r.description, r.category, r.ingredients, r.image,
        u.username, r.user_id, r.created_at,
        (SELECT COUNT(*) FROM recipe_likes l WHERE l.recipe_id = r.id) AS likes,
        EXISTS(
            SELECT 1 FROM recipe_likes l
            WHERE l.recipe_id = r.id AND l.user_id = $1
        ) AS liked_by_viewer`

// List returns the full collection, newest first, with like metadata
// resolved for the viewer. An empty viewerID never matches a like row.
func (r *PostgresRecipeRepository) List(ctx context.Context, viewerID string) ([]models.Recipe, error) {
	return r.query(ctx, `
        SELECT `+recipeColumns+`
        FROM recipes r
        JOIN users u ON u.id = r.user_id
        ORDER BY r.created_at DESC
    `, viewerID)
}

// ListByOwner returns the records created by ownerID, newest first.
func (r *PostgresRecipeRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Recipe, error) {
	return r.query(ctx, `
        SELECT `+recipeColumns+`
        FROM recipes r
        JOIN users u ON u.id = r.user_id
        WHERE r.user_id = $2
        ORDER BY r.created_at DESC
    `, ownerID, ownerID)
}

func (r *PostgresRecipeRepository) query(ctx context.Context, sql string, args ...any) ([]models.Recipe, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}

	return recipes, nil
}

// Get fetches one record with like metadata for the viewer.
func (r *PostgresRecipeRepository) Get(ctx context.Context, id, viewerID string) (models.Recipe, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Recipe{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+recipeColumns+`
        FROM recipes r
        JOIN users u ON u.id = r.user_id
        WHERE r.id = $2
    `, viewerID, id)

	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Recipe{}, ErrNotFound
		}
		return models.Recipe{}, err
	}

	return recipe, nil
}

// Create stores a new recipe record.
func (r *PostgresRecipeRepository) Create(ctx context.Context, recipe models.Recipe) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO recipes (id, user_id, title, description, category, ingredients, image, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, recipe.ID, recipe.AuthorID, recipe.Title, recipe.Description, recipe.Category,
		joinIngredients(recipe.Ingredients), recipe.Image, recipe.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert recipe: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of an existing recipe.
func (r *PostgresRecipeRepository) Update(ctx context.Context, recipe models.Recipe) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE recipes
        SET title = $2, description = $3, category = $4, ingredients = $5, image = $6
        WHERE id = $1
    `, recipe.ID, recipe.Title, recipe.Description, recipe.Category,
		joinIngredients(recipe.Ingredients), recipe.Image)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a recipe and, via cascade, its likes.
func (r *PostgresRecipeRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ToggleLike flips the user's like row for the recipe and returns the
// resulting authoritative count and flag.
func (r *PostgresRecipeRepository) ToggleLike(ctx context.Context, userID, recipeID string) (models.LikeStatus, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.LikeStatus{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return models.LikeStatus{}, fmt.Errorf("begin like transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM recipes WHERE id = $1)`, recipeID).Scan(&exists); err != nil {
		return models.LikeStatus{}, fmt.Errorf("check recipe exists: %w", err)
	}
	if !exists {
		return models.LikeStatus{}, ErrNotFound
	}

	tag, err := tx.Exec(ctx, `
        DELETE FROM recipe_likes WHERE user_id = $1 AND recipe_id = $2
    `, userID, recipeID)
	if err != nil {
		return models.LikeStatus{}, fmt.Errorf("remove like: %w", err)
	}

	liked := false
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx, `
            INSERT INTO recipe_likes (user_id, recipe_id) VALUES ($1, $2)
        `, userID, recipeID); err != nil {
			return models.LikeStatus{}, fmt.Errorf("insert like: %w", err)
		}
		liked = true
	}

	var likes int
	if err := tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM recipe_likes WHERE recipe_id = $1
    `, recipeID).Scan(&likes); err != nil {
		return models.LikeStatus{}, fmt.Errorf("count likes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.LikeStatus{}, fmt.Errorf("commit like transaction: %w", err)
	}

	return models.LikeStatus{Likes: likes, LikedByUser: liked}, nil
}

func scanRecipe(row pgx.Row) (models.Recipe, error) {
	var (
		recipe      models.Recipe
		ingredients string
	)
	if err := row.Scan(
		&recipe.ID, &recipe.Title, &recipe.Description, &recipe.Category,
		&ingredients, &recipe.Image, &recipe.Author, &recipe.AuthorID,
		&recipe.CreatedAt, &recipe.Likes, &recipe.LikedByUser,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Recipe{}, err
		}
		return models.Recipe{}, fmt.Errorf("scan recipe: %w", err)
	}
	recipe.Ingredients = splitIngredients(ingredients)
	return recipe, nil
}

// Ingredients persist as one newline-joined text column.
func joinIngredients(lines []string) string {
	return strings.Join(lines, "\n")
}

func splitIngredients(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ TokenStore = (*PostgresTokenStore)(nil)
var _ RecipeRepository = (*PostgresRecipeRepository)(nil)
