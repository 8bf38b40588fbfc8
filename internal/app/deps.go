package app

import (
	"context"
	"fmt"

	"github.com/recipenav/recipenav/internal/config"
	"github.com/recipenav/recipenav/internal/db"
	"github.com/recipenav/recipenav/internal/handlers"
	"github.com/recipenav/recipenav/internal/middleware"
	"github.com/recipenav/recipenav/internal/repositories"
	"github.com/recipenav/recipenav/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	deps := handlers.Dependencies{
		Users:   repositories.NewPostgresUserRepository(pool),
		Tokens:  repositories.NewPostgresTokenStore(pool),
		Recipes: repositories.NewPostgresRecipeRepository(pool),
		AuthLimiter: middleware.NewIPRateLimiter(
			cfg.AuthRateLimit.Requests,
			cfg.AuthRateLimit.Window,
			cfg.AuthRateLimit.Burst,
			cfg.AuthRateLimit.TTL,
		),
	}

	switch cfg.StorageBackend {
	case "s3":
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure s3 storage: %w", err)
		}
		deps.Images = store
		// Images land behind the bucket's public URL, so nothing serves /uploads.
	default:
		store, err := storage.NewLocalStorage(cfg.UploadDir)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure local storage: %w", err)
		}
		deps.Images = store
		deps.ImageOpener = store
	}

	return deps, nil
}
