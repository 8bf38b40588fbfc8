package repositories

import (
	"context"

	"github.com/recipenav/recipenav/internal/models"
)

// RecipeRepository exposes data access for the recipe collection. Every
// read takes the viewer's user id (may be empty for anonymous callers) so
// the liked-by-viewer flag can be resolved in the query.
type RecipeRepository interface {
	List(ctx context.Context, viewerID string) ([]models.Recipe, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Recipe, error)
	Get(ctx context.Context, id, viewerID string) (models.Recipe, error)
	Create(ctx context.Context, recipe models.Recipe) error
	Update(ctx context.Context, recipe models.Recipe) error
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, userID, recipeID string) (models.LikeStatus, error)
}
