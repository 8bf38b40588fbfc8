package handlers

import (
	"net/http"

	"github.com/recipenav/recipenav/internal/storage"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Tokens: deps.Tokens, Limiter: deps.AuthLimiter}
	recipes := RecipeHandler{Recipes: deps.Recipes, Tokens: deps.Tokens, Images: deps.Images}
	uploads := UploadHandler{Images: deps.ImageOpener}

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.HandleFunc("POST /api/v1/auth/register", auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", auth.Login)
	mux.HandleFunc("GET /api/v1/auth/me", auth.Me)
	mux.HandleFunc("GET /api/v1/recipes", recipes.List)
	mux.HandleFunc("POST /api/v1/recipes", recipes.Create)
	mux.HandleFunc("GET /api/v1/recipes/mine", recipes.Mine)
	mux.HandleFunc("PUT /api/v1/recipes/{id}", recipes.Update)
	mux.HandleFunc("DELETE /api/v1/recipes/{id}", recipes.Delete)
	mux.HandleFunc("POST /api/v1/recipes/{id}/like", recipes.Like)
	mux.HandleFunc("GET /uploads/{file}", uploads.Serve)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users       UserStore
	Tokens      TokenStore
	Recipes     RecipeStore
	Images      storage.ImageStorage
	ImageOpener storage.ImageOpener
	AuthLimiter RateLimiter
}
