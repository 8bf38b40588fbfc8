package syncer

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recipenav/recipenav/internal/collection"
	"github.com/recipenav/recipenav/internal/models"
	"github.com/recipenav/recipenav/internal/remote"
)

// RemoteService captures the collection-service calls the pipeline and
// poller issue.
type RemoteService interface {
	FetchAll(ctx context.Context, token string) ([]models.Recipe, error)
	Create(ctx context.Context, token string, payload remote.RecipePayload) (models.Recipe, error)
	Update(ctx context.Context, token, id string, payload remote.RecipePayload) (models.Recipe, error)
	Delete(ctx context.Context, token, id string) error
	ToggleLike(ctx context.Context, token, id string) (models.LikeStatus, error)
}

// SessionSource exposes the current session without ambient globals.
type SessionSource interface {
	Current() (models.Session, bool)
}

// placeholderPrefix marks locally generated ids for not-yet-persisted
// records; server ids never carry it.
const placeholderPrefix = "pending-"

// Pipeline applies user mutations optimistically and reconciles them
// against the service outcome: guard, optimistic apply, then commit or
// roll back. Each record id admits at most one outstanding mutation.
type Pipeline struct {
	store    *collection.Store
	remote   RemoteService
	sessions SessionSource

	now func() time.Time
}

// NewPipeline wires a mutation pipeline over the given store and service.
func NewPipeline(store *collection.Store, svc RemoteService, sessions SessionSource) *Pipeline {
	return &Pipeline{
		store:    store,
		remote:   svc,
		sessions: sessions,
		now:      time.Now,
	}
}

// Refresh performs an explicit full fetch, swapping the snapshot wholesale.
// Unlike the poller it touches every field, so it must not run while any
// mutation is outstanding on a record it replaces; callers use it for the
// initial load.
func (p *Pipeline) Refresh(ctx context.Context) error {
	var token string
	if session, ok := p.sessions.Current(); ok {
		token = session.Token
	}

	recipes, err := p.remote.FetchAll(ctx, token)
	if err != nil {
		return err
	}

	p.store.ReplaceAll(recipes)
	return nil
}

// Create validates the draft, inserts a placeholder record, then replaces
// it with the server-assigned version or removes it on failure.
func (p *Pipeline) Create(ctx context.Context, draft models.RecipeDraft, image io.Reader) (models.Recipe, error) {
	session, ok := p.sessions.Current()
	if !ok {
		return models.Recipe{}, ErrUnauthorized
	}

	if err := validateDraft(draft, true); err != nil {
		return models.Recipe{}, err
	}

	id := placeholderPrefix + uuid.NewString()
	if err := p.store.Begin(id, collection.MutationCreate); err != nil {
		return models.Recipe{}, err
	}
	defer p.store.End(id)

	p.store.Insert(models.Recipe{
		ID:          id,
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Ingredients: draft.Ingredients,
		Image:       draft.ImageName,
		Author:      session.Username,
		Likes:       0,
		CreatedAt:   p.now().UTC(),
	})

	created, err := p.remote.Create(ctx, session.Token, payloadFromDraft(draft, image))
	if err != nil {
		p.store.Remove(id)
		return models.Recipe{}, commandError(OpCreate, err)
	}

	p.store.Rekey(id, created)
	return created, nil
}

// Update patches the record optimistically, then adopts the server's
// canonical version or restores the captured rollback value.
func (p *Pipeline) Update(ctx context.Context, id string, draft models.RecipeDraft, image io.Reader) (models.Recipe, error) {
	session, ok := p.sessions.Current()
	if !ok {
		return models.Recipe{}, ErrUnauthorized
	}

	if err := validateDraft(draft, false); err != nil {
		return models.Recipe{}, err
	}

	if err := p.store.Begin(id, collection.MutationUpdate); err != nil {
		return models.Recipe{}, err
	}
	defer p.store.End(id)

	rollback, ok := p.store.Get(id)
	if !ok {
		return models.Recipe{}, ErrUnknownRecord
	}

	p.store.ApplyPatch(id, patchFromDraft(draft))

	updated, err := p.remote.Update(ctx, session.Token, id, payloadFromDraft(draft, image))
	if err != nil {
		p.store.Replace(id, rollback)
		return models.Recipe{}, commandError(OpUpdate, err)
	}

	// The server may have normalised or rejected a subset of fields; its
	// response supersedes the optimistic guess.
	p.store.Replace(id, updated)
	return updated, nil
}

// Delete removes the record immediately and reinserts the captured value
// if the service refuses.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	session, ok := p.sessions.Current()
	if !ok {
		return ErrUnauthorized
	}

	if err := p.store.Begin(id, collection.MutationDelete); err != nil {
		return err
	}
	defer p.store.End(id)

	rollback, ok := p.store.Remove(id)
	if !ok {
		return ErrUnknownRecord
	}

	if err := p.remote.Delete(ctx, session.Token, id); err != nil {
		p.store.Insert(rollback)
		return commandError(OpDelete, err)
	}

	return nil
}

// ToggleLike flips the liked flag with a ±1 guess, then overwrites the
// guess with the server's authoritative count. A stale client may be wrong
// about its own prior state, so the server decides like versus unlike.
func (p *Pipeline) ToggleLike(ctx context.Context, id string) (models.LikeStatus, error) {
	session, ok := p.sessions.Current()
	if !ok {
		return models.LikeStatus{}, ErrUnauthorized
	}

	if err := p.store.Begin(id, collection.MutationLike); err != nil {
		return models.LikeStatus{}, err
	}
	defer p.store.End(id)

	before, ok := p.store.Get(id)
	if !ok {
		return models.LikeStatus{}, ErrUnknownRecord
	}

	guessLiked := !before.LikedByUser
	guessLikes := before.Likes + 1
	if !guessLiked {
		guessLikes = before.Likes - 1
	}
	if guessLikes < 0 {
		guessLikes = 0
	}
	p.store.ApplyPatch(id, collection.Patch{Likes: &guessLikes, LikedByUser: &guessLiked})

	status, err := p.remote.ToggleLike(ctx, session.Token, id)
	if err != nil {
		p.store.ApplyPatch(id, collection.Patch{Likes: &before.Likes, LikedByUser: &before.LikedByUser})
		return models.LikeStatus{}, commandError(OpLike, err)
	}

	p.store.ApplyPatch(id, collection.Patch{Likes: &status.Likes, LikedByUser: &status.LikedByUser})
	return status, nil
}

func validateDraft(draft models.RecipeDraft, create bool) error {
	if create {
		if strings.TrimSpace(draft.Title) == "" {
			return &ValidationError{Field: "title", Reason: "must not be empty"}
		}
		if strings.TrimSpace(draft.Description) == "" {
			return &ValidationError{Field: "description", Reason: "must not be empty"}
		}
		if draft.Category == "" {
			return &ValidationError{Field: "category", Reason: "must not be empty"}
		}
	}
	if draft.Category != "" && !models.ValidCategory(draft.Category) {
		return &ValidationError{Field: "category", Reason: "unknown category " + draft.Category}
	}
	return nil
}

func patchFromDraft(draft models.RecipeDraft) collection.Patch {
	var patch collection.Patch
	if draft.Title != "" {
		patch.Title = &draft.Title
	}
	if draft.Description != "" {
		patch.Description = &draft.Description
	}
	if draft.Category != "" {
		patch.Category = &draft.Category
	}
	if len(draft.Ingredients) > 0 {
		patch.Ingredients = &draft.Ingredients
	}
	if draft.ImageName != "" {
		patch.Image = &draft.ImageName
	}
	return patch
}

func payloadFromDraft(draft models.RecipeDraft, image io.Reader) remote.RecipePayload {
	return remote.RecipePayload{
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Ingredients: draft.Ingredients,
		ImageName:   draft.ImageName,
		Image:       image,
	}
}

func commandError(op Op, err error) *CommandError {
	cmdErr := &CommandError{Op: op, Err: err}
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		cmdErr.Reason = apiErr.Reason
	}
	return cmdErr
}
