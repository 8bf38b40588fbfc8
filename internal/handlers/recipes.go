package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recipenav/recipenav/internal/logging"
	"github.com/recipenav/recipenav/internal/models"
	"github.com/recipenav/recipenav/internal/repositories"
	"github.com/recipenav/recipenav/internal/storage"
)

// maxUploadBytes bounds multipart recipe submissions, image included.
const maxUploadBytes = 10 << 20

// RecipeHandler implements the collection endpoints.
type RecipeHandler struct {
	Recipes RecipeStore
	Tokens  TokenStore
	Images  storage.ImageStorage
	NowFunc func() time.Time
}

// List handles GET /api/v1/recipes. Anonymous callers get the full
// collection with likedByUser forced false by an empty viewer id.
func (h RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var viewerID string
	if user, err := currentUser(ctx, h.Tokens, r); err == nil {
		viewerID = user.ID
	}

	recipes, err := h.Recipes.List(ctx, viewerID)
	if err != nil {
		logging.FromContext(ctx).Error("list recipes", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list recipes"})
		return
	}

	if recipes == nil {
		recipes = []models.Recipe{}
	}
	respondJSON(ctx, w, http.StatusOK, recipes)
}

// Mine handles GET /api/v1/recipes/mine.
func (h RecipeHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(ctx, h.Tokens, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		return
	}

	recipes, err := h.Recipes.ListByOwner(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("list own recipes", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list recipes"})
		return
	}

	if recipes == nil {
		recipes = []models.Recipe{}
	}
	respondJSON(ctx, w, http.StatusOK, recipes)
}

// Create handles POST /api/v1/recipes with a multipart form body.
func (h RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := currentUser(ctx, h.Tokens, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		return
	}

	form, ok := parseRecipeForm(w, r)
	if !ok {
		return
	}

	if form.title == "" || form.description == "" || form.category == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title, description and category are required"})
		return
	}
	if !models.ValidCategory(form.category) {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown category " + form.category})
		return
	}

	now := h.now()

	image := ""
	if form.file != nil {
		image, err = h.saveImage(r, form, now)
		if err != nil {
			logger.Error("store recipe image", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store image"})
			return
		}
	}

	recipe := models.Recipe{
		ID:          uuid.NewString(),
		Title:       form.title,
		Description: form.description,
		Category:    form.category,
		Ingredients: form.ingredients,
		Image:       image,
		Author:      user.Username,
		AuthorID:    user.ID,
		CreatedAt:   now,
	}

	if err := h.Recipes.Create(ctx, recipe); err != nil {
		logger.Error("create recipe", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create recipe"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, recipe)
}

// Update handles PUT /api/v1/recipes/{id}. Only the owner may update;
// fields omitted from the form keep their stored values.
func (h RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := currentUser(ctx, h.Tokens, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		return
	}

	id := r.PathValue("id")
	existing, err := h.Recipes.Get(ctx, id, user.ID)
	if err != nil || existing.AuthorID != user.ID {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "recipe not found or not owned by you"})
		return
	}

	form, ok := parseRecipeForm(w, r)
	if !ok {
		return
	}

	if form.category != "" && !models.ValidCategory(form.category) {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown category " + form.category})
		return
	}

	updated := existing
	if form.title != "" {
		updated.Title = form.title
	}
	if form.description != "" {
		updated.Description = form.description
	}
	if form.category != "" {
		updated.Category = form.category
	}
	if len(form.ingredients) > 0 {
		updated.Ingredients = form.ingredients
	}

	if form.file != nil {
		image, err := h.saveImage(r, form, h.now())
		if err != nil {
			logger.Error("store recipe image", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store image"})
			return
		}
		if existing.Image != "" {
			if err := h.Images.Remove(ctx, existing.Image); err != nil {
				logger.Warn("remove replaced image", "error", err, "image", existing.Image)
			}
		}
		updated.Image = image
	}

	if err := h.Recipes.Update(ctx, updated); err != nil {
		logger.Error("update recipe", "error", err, "recipeId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update recipe"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/recipes/{id}. Only the owner may delete.
func (h RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := currentUser(ctx, h.Tokens, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		return
	}

	id := r.PathValue("id")
	existing, err := h.Recipes.Get(ctx, id, user.ID)
	if err != nil || existing.AuthorID != user.ID {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "recipe not found or not owned by you"})
		return
	}

	if err := h.Recipes.Delete(ctx, id); err != nil {
		logger.Error("delete recipe", "error", err, "recipeId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete recipe"})
		return
	}

	if existing.Image != "" {
		if err := h.Images.Remove(ctx, existing.Image); err != nil {
			logger.Warn("remove deleted recipe image", "error", err, "image", existing.Image)
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"success": true, "id": id})
}

// Like handles POST /api/v1/recipes/{id}/like. The response carries the
// authoritative like count and the caller's resulting state.
func (h RecipeHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(ctx, h.Tokens, r)
	if err != nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		return
	}

	id := r.PathValue("id")
	status, err := h.Recipes.ToggleLike(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
			return
		}
		logging.FromContext(ctx).Error("toggle like", "error", err, "recipeId", id, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle like"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, status)
}

func (h RecipeHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func (h RecipeHandler) saveImage(r *http.Request, form recipeForm, now time.Time) (string, error) {
	defer form.file.Close()
	name := fmt.Sprintf("%d_%s", now.Unix(), storage.SanitizeName(form.fileName))
	return h.Images.Save(r.Context(), name, form.file)
}

type recipeForm struct {
	title       string
	description string
	category    string
	ingredients []string
	file        multipart.File
	fileName    string
}

func parseRecipeForm(w http.ResponseWriter, r *http.Request) (recipeForm, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "invalid form body"})
		return recipeForm{}, false
	}

	form := recipeForm{
		title:       strings.TrimSpace(r.FormValue("title")),
		description: strings.TrimSpace(r.FormValue("description")),
		category:    strings.TrimSpace(r.FormValue("category")),
	}

	if raw := strings.TrimSpace(r.FormValue("ingredients")); raw != "" {
		for _, line := range strings.Split(raw, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				form.ingredients = append(form.ingredients, trimmed)
			}
		}
	}

	if file, header, err := r.FormFile("image"); err == nil {
		form.file = file
		form.fileName = header.Filename
	}

	return form, true
}
