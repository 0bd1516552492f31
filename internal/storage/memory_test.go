package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/models"
)

func archived(id int64, title string) models.ArchivedPost {
	return models.ArchivedPost{
		Post:       models.Post{ID: id, Title: title, Body: "body"},
		ArchivedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Source:     "snapshot",
	}
}

func TestNewStorage(t *testing.T) {
	store, err := NewStorage(config.StorageConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, store)

	store, err = NewStorage(config.StorageConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, store)

	_, err = NewStorage(config.StorageConfig{Type: "cassandra"})
	assert.EqualError(t, err, "unsupported storage type: cassandra")
}

func TestNewStorage_MissingURIs(t *testing.T) {
	_, err := NewStorage(config.StorageConfig{Type: "mongodb"})
	assert.Error(t, err)

	_, err = NewStorage(config.StorageConfig{Type: "postgresql"})
	assert.Error(t, err)
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("StorePosts and GetPostByID", func(t *testing.T) {
		store := NewMemoryStorage()
		require.NoError(t, store.StorePosts(ctx, []models.ArchivedPost{archived(1, "one")}))

		got, err := store.GetPostByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "one", got.Title)

		missing, err := store.GetPostByID(ctx, 2)
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("StorePosts upserts and keeps order", func(t *testing.T) {
		store := NewMemoryStorage()
		require.NoError(t, store.StorePosts(ctx, []models.ArchivedPost{archived(3, "c"), archived(1, "a")}))
		require.NoError(t, store.StorePosts(ctx, []models.ArchivedPost{archived(3, "c2"), archived(2, "b")}))

		posts, err := store.GetPosts(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []string{"c2", "a", "b"}, []string{posts[0].Title, posts[1].Title, posts[2].Title})
	})

	t.Run("GetPosts pagination", func(t *testing.T) {
		store := NewMemoryStorage()
		for i := int64(1); i <= 5; i++ {
			require.NoError(t, store.StorePosts(ctx, []models.ArchivedPost{archived(i, "p")}))
		}

		page, err := store.GetPosts(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(3), page[0].ID)
		assert.Equal(t, int64(4), page[1].ID)

		page, err = store.GetPosts(ctx, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
		assert.NotNil(t, page)
	})

	t.Run("ArchiveStatus", func(t *testing.T) {
		store := NewMemoryStorage()

		status, err := store.GetArchiveStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.ArchiveNeverRun, status.Status)

		now := time.Now().UTC()
		require.NoError(t, store.UpdateArchiveStatus(ctx, models.ArchiveStatus{
			Status:            models.ArchiveSuccess,
			LastAttempt:       now,
			LastSuccessfulRun: now,
			RecordsArchived:   4,
		}))

		status, err = store.GetArchiveStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.ArchiveSuccess, status.Status)
		assert.Equal(t, 4, status.RecordsArchived)
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, NewMemoryStorage().Close())
	})
}
