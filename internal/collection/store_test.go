package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipenav/recipenav/internal/models"
)

func TestStoreSnapshotKeepsInsertionOrder(t *testing.T) {
	store := NewStore()
	store.Insert(models.Recipe{ID: "a", Title: "first"})
	store.Insert(models.Recipe{ID: "b", Title: "second"})
	store.Insert(models.Recipe{ID: "c", Title: "third"})

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, "b", snapshot[1].ID)
	assert.Equal(t, "c", snapshot[2].ID)
}

func TestStoreReplaceKeepsPosition(t *testing.T) {
	store := NewStore()
	store.Insert(models.Recipe{ID: "a"})
	store.Insert(models.Recipe{ID: "b"})

	require.True(t, store.Replace("a", models.Recipe{ID: "a", Title: "renamed"}))

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "renamed", snapshot[0].Title)
	assert.Equal(t, "b", snapshot[1].ID)
}

func TestStoreRekeySwapsPlaceholder(t *testing.T) {
	store := NewStore()
	store.Insert(models.Recipe{ID: "pending-1", Title: "draft"})
	store.Insert(models.Recipe{ID: "b"})

	require.True(t, store.Rekey("pending-1", models.Recipe{ID: "server-1", Title: "draft"}))

	_, ok := store.Get("pending-1")
	assert.False(t, ok)

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "server-1", snapshot[0].ID, "rekeyed record keeps its stable position")
}

func TestStoreRemoveReturnsRollbackValue(t *testing.T) {
	store := NewStore()
	store.Insert(models.Recipe{ID: "a", Title: "keep me"})

	removed, ok := store.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "keep me", removed.Title)
	assert.Equal(t, 0, store.Len())

	_, ok = store.Remove("a")
	assert.False(t, ok)
}

func TestStoreApplyPatchMergesOnlySetFields(t *testing.T) {
	store := NewStore()
	store.Insert(models.Recipe{ID: "a", Title: "original", Likes: 2})

	likes := 9
	liked := true
	require.True(t, store.ApplyPatch("a", Patch{Likes: &likes, LikedByUser: &liked}))

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "original", got.Title)
	assert.Equal(t, 9, got.Likes)
	assert.True(t, got.LikedByUser)

	assert.False(t, store.ApplyPatch("missing", Patch{Likes: &likes}))
}

func TestStoreReplaceAllResetsSnapshot(t *testing.T) {
	store := NewStore()
	store.Insert(models.Recipe{ID: "stale"})

	store.ReplaceAll([]models.Recipe{{ID: "x"}, {ID: "y"}})

	_, ok := store.Get("stale")
	assert.False(t, ok)

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "x", snapshot[0].ID)
	assert.Equal(t, "y", snapshot[1].ID)
}

func TestStoreInFlightGuard(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Begin("a", MutationUpdate))
	assert.ErrorIs(t, store.Begin("a", MutationLike), ErrMutationInFlight)

	kind, busy := store.InFlight("a")
	require.True(t, busy)
	assert.Equal(t, MutationUpdate, kind)

	require.NoError(t, store.Begin("b", MutationDelete), "other ids are unaffected")
	store.End("b")

	store.End("a")
	_, busy = store.InFlight("a")
	assert.False(t, busy)
	require.NoError(t, store.Begin("a", MutationLike))
}

func TestStoreSubscribeNotifiesOnChanges(t *testing.T) {
	store := NewStore()

	var notified int
	unsubscribe := store.Subscribe(func() { notified++ })

	store.Insert(models.Recipe{ID: "a"})
	store.Replace("a", models.Recipe{ID: "a", Title: "x"})
	store.Remove("a")
	assert.Equal(t, 3, notified)

	store.Replace("missing", models.Recipe{ID: "missing"})
	assert.Equal(t, 3, notified, "failed changes do not notify")

	unsubscribe()
	store.Insert(models.Recipe{ID: "b"})
	assert.Equal(t, 3, notified)
}
