package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipenav/recipenav/internal/collection"
	"github.com/recipenav/recipenav/internal/models"
)

func TestPollerTickPatchesLikeMetadataOnly(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Title: "local edit", Likes: 2, LikedByUser: false})

	svc := &remoteStub{fetchAll: func(context.Context, string) ([]models.Recipe, error) {
		return []models.Recipe{{ID: "r-1", Title: "server title", Likes: 7, LikedByUser: true}}, nil
	}}

	poller := NewPoller(store, svc, activeSession(), 0, nil)
	require.NoError(t, poller.Tick(context.Background()))

	got, ok := store.Get("r-1")
	require.True(t, ok)
	assert.Equal(t, "local edit", got.Title, "poll must not revert a concurrent edit")
	assert.Equal(t, 7, got.Likes)
	assert.True(t, got.LikedByUser)
}

func TestPollerTickSkipsInFlightRecords(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Likes: 2})
	require.NoError(t, store.Begin("r-1", collection.MutationLike))

	svc := &remoteStub{fetchAll: func(context.Context, string) ([]models.Recipe, error) {
		return []models.Recipe{{ID: "r-1", Likes: 99}}, nil
	}}

	poller := NewPoller(store, svc, activeSession(), 0, nil)
	require.NoError(t, poller.Tick(context.Background()))

	got, _ := store.Get("r-1")
	assert.Equal(t, 2, got.Likes, "in-flight records are left alone")
}

func TestPollerTickInsertsUnseenRecords(t *testing.T) {
	store := collection.NewStore()

	svc := &remoteStub{fetchAll: func(context.Context, string) ([]models.Recipe, error) {
		return []models.Recipe{{ID: "new-1", Title: "Fresh", Likes: 1}}, nil
	}}

	poller := NewPoller(store, svc, activeSession(), 0, nil)
	require.NoError(t, poller.Tick(context.Background()))

	got, ok := store.Get("new-1")
	require.True(t, ok)
	assert.Equal(t, "Fresh", got.Title)
}

func TestPollerTickRemovesServerDeletedRecords(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "gone"})
	store.Insert(models.Recipe{ID: "kept"})

	svc := &remoteStub{fetchAll: func(context.Context, string) ([]models.Recipe, error) {
		return []models.Recipe{{ID: "kept"}}, nil
	}}

	poller := NewPoller(store, svc, activeSession(), 0, nil)
	require.NoError(t, poller.Tick(context.Background()))

	_, ok := store.Get("gone")
	assert.False(t, ok)
	_, ok = store.Get("kept")
	assert.True(t, ok)
}

func TestPollerTickKeepsPendingCreatePlaceholder(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "pending-123", Title: "draft"})
	require.NoError(t, store.Begin("pending-123", collection.MutationCreate))

	svc := &remoteStub{fetchAll: func(context.Context, string) ([]models.Recipe, error) {
		return nil, nil
	}}

	poller := NewPoller(store, svc, activeSession(), 0, nil)
	require.NoError(t, poller.Tick(context.Background()))

	_, ok := store.Get("pending-123")
	assert.True(t, ok, "placeholder is absent from the server by definition")
}

func TestPollerTickRemovesAbsentRecordDespitePendingUpdate(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1"})
	require.NoError(t, store.Begin("r-1", collection.MutationUpdate))

	svc := &remoteStub{fetchAll: func(context.Context, string) ([]models.Recipe, error) {
		return nil, nil
	}}

	poller := NewPoller(store, svc, activeSession(), 0, nil)
	require.NoError(t, poller.Tick(context.Background()))

	_, ok := store.Get("r-1")
	assert.False(t, ok, "server deletion wins over a concurrent update")
}

func TestPollerTickFetchFailureLeavesSnapshotUntouched(t *testing.T) {
	store := collection.NewStore()
	store.Insert(models.Recipe{ID: "r-1", Likes: 2})

	svc := &remoteStub{fetchAll: func(context.Context, string) ([]models.Recipe, error) {
		return nil, errors.New("connection reset")
	}}

	poller := NewPoller(store, svc, activeSession(), 0, nil)
	require.Error(t, poller.Tick(context.Background()))

	got, ok := store.Get("r-1")
	require.True(t, ok)
	assert.Equal(t, 2, got.Likes)
}
