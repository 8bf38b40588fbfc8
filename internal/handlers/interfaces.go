package handlers

import (
	"context"

	"github.com/recipenav/recipenav/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// TokenStore resolves and records bearer tokens.
type TokenStore interface {
	Save(ctx context.Context, token, userID string) error
	FindUser(ctx context.Context, token string) (models.User, error)
	Delete(ctx context.Context, token string) error
}

// RecipeStore captures persistence for the recipe collection.
type RecipeStore interface {
	List(ctx context.Context, viewerID string) ([]models.Recipe, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Recipe, error)
	Get(ctx context.Context, id, viewerID string) (models.Recipe, error)
	Create(ctx context.Context, recipe models.Recipe) error
	Update(ctx context.Context, recipe models.Recipe) error
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, userID, recipeID string) (models.LikeStatus, error)
}
