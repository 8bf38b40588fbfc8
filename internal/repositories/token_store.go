package repositories

import (
	"context"

	"github.com/recipenav/recipenav/internal/models"
)

// TokenStore persists issued bearer tokens so sessions survive restarts.
type TokenStore interface {
	Save(ctx context.Context, token, userID string) error
	FindUser(ctx context.Context, token string) (models.User, error)
	Delete(ctx context.Context, token string) error
}
