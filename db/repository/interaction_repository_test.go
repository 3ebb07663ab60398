package repository

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossposter/mastodon-comments/db"
	"github.com/crossposter/mastodon-comments/db/models"
)

func setupRepo(t *testing.T) InteractionRepository {
	t.Helper()

	database, err := db.NewDatabase(t.TempDir(), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewInteractionRepository(database.DB)
}

func TestRecordAndExists(t *testing.T) {
	repo := setupRepo(t)

	exists, err := repo.Exists("https://remote/@x/1", 7)
	require.NoError(t, err)
	assert.False(t, exists)

	entry, err := repo.Record("https://remote/@x/1", 7, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, entry.Status)
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	exists, err = repo.Exists("https://remote/@x/1", 7)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExistsIsScopedToPost(t *testing.T) {
	repo := setupRepo(t)

	// A favorite from one account on post 8 must not shadow the same
	// account's favorite on post 7.
	_, err := repo.Record("https://remote/@y", 8, "")
	require.NoError(t, err)

	exists, err := repo.Exists("https://remote/@y", 7)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.Exists("https://remote/@y", 8)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRecordRejectsDuplicatePair(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Record("https://remote/@x/1", 7, "")
	require.NoError(t, err)

	// The composite unique index backs up the Exists check.
	_, err = repo.Record("https://remote/@x/1", 7, "")
	assert.Error(t, err)
}
