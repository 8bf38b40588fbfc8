package syncer

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipenav/recipenav/internal/collection"
	"github.com/recipenav/recipenav/internal/models"
	"github.com/recipenav/recipenav/internal/remote"
)

type remoteStub struct {
	fetchAll   func(ctx context.Context, token string) ([]models.Recipe, error)
	create     func(ctx context.Context, token string, payload remote.RecipePayload) (models.Recipe, error)
	update     func(ctx context.Context, token, id string, payload remote.RecipePayload) (models.Recipe, error)
	deleteFn   func(ctx context.Context, token, id string) error
	toggleLike func(ctx context.Context, token, id string) (models.LikeStatus, error)
}

func (s *remoteStub) FetchAll(ctx context.Context, token string) ([]models.Recipe, error) {
	if s.fetchAll == nil {
		return nil, nil
	}
	return s.fetchAll(ctx, token)
}

func (s *remoteStub) Create(ctx context.Context, token string, payload remote.RecipePayload) (models.Recipe, error) {
	if s.create == nil {
		return models.Recipe{}, errors.New("unexpected Create call")
	}
	return s.create(ctx, token, payload)
}

func (s *remoteStub) Update(ctx context.Context, token, id string, payload remote.RecipePayload) (models.Recipe, error) {
	if s.update == nil {
		return models.Recipe{}, errors.New("unexpected Update call")
	}
	return s.update(ctx, token, id, payload)
}

func (s *remoteStub) Delete(ctx context.Context, token, id string) error {
	if s.deleteFn == nil {
		return errors.New("unexpected Delete call")
	}
	return s.deleteFn(ctx, token, id)
}

func (s *remoteStub) ToggleLike(ctx context.Context, token, id string) (models.LikeStatus, error) {
	if s.toggleLike == nil {
		return models.LikeStatus{}, errors.New("unexpected ToggleLike call")
	}
	return s.toggleLike(ctx, token, id)
}

type sessionsStub struct {
	session models.Session
	active  bool
}

func (s sessionsStub) Current() (models.Session, bool) {
	return s.session, s.active
}

func activeSession() sessionsStub {
	return sessionsStub{session: models.Session{Username: "alice", Token: "token-1"}, active: true}
}

func TestPipelineRefreshSwapsSnapshot(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "stale"})

	svc := &remoteStub{fetchAll: func(_ context.Context, token string) ([]models.Recipe, error) {
		assert.Equal(t, "token-1", token)
		return []models.Recipe{{ID: "r-1", Title: "Pancakes"}}, nil
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	require.NoError(t, pipeline.Refresh(context.Background()))

	_, ok := store.Get("stale")
	assert.False(t, ok)
	got, ok := store.Get("r-1")
	require.True(t, ok)
	assert.Equal(t, "Pancakes", got.Title)
}

func TestPipelineCreateAdoptsServerRecord(t *testing.T) {
	store := collection.NewStore()

	var sawPlaceholder bool
	svc := &remoteStub{create: func(_ context.Context, token string, payload remote.RecipePayload) (models.Recipe, error) {
		assert.Equal(t, "token-1", token)
		assert.Equal(t, "Pancakes", payload.Title)
		// The optimistic placeholder must already be visible while the
		// request is on the wire.
		for _, r := range store.Snapshot() {
			if strings.HasPrefix(r.ID, "pending-") {
				sawPlaceholder = true
			}
		}
		return models.Recipe{ID: "server-1", Title: "Pancakes", Author: "alice"}, nil
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	created, err := pipeline.Create(context.Background(), models.RecipeDraft{
		Title:       "Pancakes",
		Description: "Fluffy",
		Category:    "Breakfast",
	}, nil)
	require.NoError(t, err)
	assert.True(t, sawPlaceholder)
	assert.Equal(t, "server-1", created.ID)

	require.Equal(t, 1, store.Len())
	got, ok := store.Get("server-1")
	require.True(t, ok)
	assert.Equal(t, "Pancakes", got.Title)

	_, busy := store.InFlight("server-1")
	assert.False(t, busy)
}

func TestPipelineCreateRollsBackOnFailure(t *testing.T) {
	store := collection.NewStore()

	svc := &remoteStub{create: func(context.Context, string, remote.RecipePayload) (models.Recipe, error) {
		return models.Recipe{}, &remote.APIError{Status: http.StatusBadRequest, Reason: "title too long"}
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	_, err := pipeline.Create(context.Background(), models.RecipeDraft{
		Title:       "Pancakes",
		Description: "Fluffy",
		Category:    "Breakfast",
	}, nil)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, OpCreate, cmdErr.Op)
	assert.Equal(t, "title too long", cmdErr.Reason)

	assert.Equal(t, 0, store.Len(), "placeholder must be rolled back")
}

func TestPipelineCreateRequiresSession(t *testing.T) {
	pipeline := NewPipeline(collection.NewStore(), &remoteStub{}, sessionsStub{})

	_, err := pipeline.Create(context.Background(), models.RecipeDraft{
		Title:       "Pancakes",
		Description: "Fluffy",
		Category:    "Breakfast",
	}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPipelineCreateValidatesDraft(t *testing.T) {
	pipeline := NewPipeline(collection.NewStore(), &remoteStub{}, activeSession())

	_, err := pipeline.Create(context.Background(), models.RecipeDraft{Description: "no title"}, nil)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)

	_, err = pipeline.Create(context.Background(), models.RecipeDraft{
		Title:       "Mystery",
		Description: "odd",
		Category:    "Midnight",
	}, nil)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "category", vErr.Field)
}

func TestPipelineUpdateAdoptsServerVersion(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Title: "Pancakes", Description: "Fluffy", Likes: 3})

	svc := &remoteStub{update: func(_ context.Context, _, id string, payload remote.RecipePayload) (models.Recipe, error) {
		assert.Equal(t, "r-1", id)
		// Server normalises the title; its version must win over the
		// optimistic guess.
		return models.Recipe{ID: "r-1", Title: "Banana Pancakes", Description: "Fluffy", Likes: 3}, nil
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	updated, err := pipeline.Update(context.Background(), "r-1", models.RecipeDraft{Title: "banana pancakes"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Banana Pancakes", updated.Title)

	got, _ := store.Get("r-1")
	assert.Equal(t, "Banana Pancakes", got.Title)
	assert.Equal(t, "Fluffy", got.Description)
}

func TestPipelineUpdateRollsBackOnFailure(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Title: "Pancakes", Description: "Fluffy"})

	svc := &remoteStub{update: func(context.Context, string, string, remote.RecipePayload) (models.Recipe, error) {
		return models.Recipe{}, &remote.APIError{Status: http.StatusNotFound, Reason: "recipe not found or not owned by you"}
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	_, err := pipeline.Update(context.Background(), "r-1", models.RecipeDraft{Title: "Hijacked"}, nil)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, OpUpdate, cmdErr.Op)

	got, ok := store.Get("r-1")
	require.True(t, ok)
	assert.Equal(t, "Pancakes", got.Title, "optimistic edit must be rolled back")
}

func TestPipelineUpdateUnknownRecord(t *testing.T) {
	pipeline := NewPipeline(collection.NewStore(), &remoteStub{}, activeSession())

	_, err := pipeline.Update(context.Background(), "ghost", models.RecipeDraft{Title: "x"}, nil)
	assert.ErrorIs(t, err, ErrUnknownRecord)
}

func TestPipelineDeleteRollsBackOnFailure(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Title: "Pancakes"})

	svc := &remoteStub{deleteFn: func(context.Context, string, string) error {
		return &remote.NetworkError{Err: errors.New("connection refused")}
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	err := pipeline.Delete(context.Background(), "r-1")

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, OpDelete, cmdErr.Op)

	got, ok := store.Get("r-1")
	require.True(t, ok, "deleted record must be reinserted")
	assert.Equal(t, "Pancakes", got.Title)
}

func TestPipelineDeleteRemovesOptimistically(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1"})

	var seenDuringCall int
	svc := &remoteStub{deleteFn: func(context.Context, string, string) error {
		seenDuringCall = store.Len()
		return nil
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	require.NoError(t, pipeline.Delete(context.Background(), "r-1"))
	assert.Equal(t, 0, seenDuringCall, "record must vanish before the request settles")
	assert.Equal(t, 0, store.Len())
}

func TestPipelineToggleLikeUsesAuthoritativeCount(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Likes: 3, LikedByUser: false})

	var optimistic models.Recipe
	svc := &remoteStub{toggleLike: func(context.Context, string, string) (models.LikeStatus, error) {
		optimistic, _ = store.Get("r-1")
		// Another user liked in the meantime; the server count differs
		// from the local +1 guess.
		return models.LikeStatus{Likes: 7, LikedByUser: true}, nil
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	status, err := pipeline.ToggleLike(context.Background(), "r-1")
	require.NoError(t, err)

	assert.Equal(t, 4, optimistic.Likes, "optimistic guess is a local +1")
	assert.True(t, optimistic.LikedByUser)

	assert.Equal(t, 7, status.Likes)
	got, _ := store.Get("r-1")
	assert.Equal(t, 7, got.Likes)
	assert.True(t, got.LikedByUser)
}

func TestPipelineToggleLikeRollsBackOnFailure(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Likes: 3, LikedByUser: true})

	svc := &remoteStub{toggleLike: func(context.Context, string, string) (models.LikeStatus, error) {
		return models.LikeStatus{}, &remote.APIError{Status: http.StatusInternalServerError}
	}}

	pipeline := NewPipeline(store, svc, activeSession())
	_, err := pipeline.ToggleLike(context.Background(), "r-1")
	require.Error(t, err)

	got, _ := store.Get("r-1")
	assert.Equal(t, 3, got.Likes)
	assert.True(t, got.LikedByUser)
}

func TestPipelineRejectsConcurrentMutationOnSameRecord(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Title: "Pancakes"})

	entered := make(chan struct{})
	release := make(chan struct{})
	svc := &remoteStub{
		update: func(context.Context, string, string, remote.RecipePayload) (models.Recipe, error) {
			close(entered)
			<-release
			return models.Recipe{ID: "r-1", Title: "Slow"}, nil
		},
		toggleLike: func(context.Context, string, string) (models.LikeStatus, error) {
			return models.LikeStatus{Likes: 1, LikedByUser: true}, nil
		},
	}

	pipeline := NewPipeline(store, svc, activeSession())

	done := make(chan error, 1)
	go func() {
		_, err := pipeline.Update(context.Background(), "r-1", models.RecipeDraft{Title: "Slow"}, nil)
		done <- err
	}()

	<-entered
	_, err := pipeline.ToggleLike(context.Background(), "r-1")
	assert.ErrorIs(t, err, ErrMutationInFlight)

	close(release)
	require.NoError(t, <-done)

	// Once the first mutation settles the id is free again.
	_, err = pipeline.ToggleLike(context.Background(), "r-1")
	require.NoError(t, err)
}
