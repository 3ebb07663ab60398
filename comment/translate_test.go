package comment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crossposter/mastodon-comments/mastodon"
)

func TestFromReply(t *testing.T) {
	createdAt := time.Date(2023, 11, 12, 9, 30, 0, 0, time.UTC)

	reply := mastodon.Status{
		URL:       "https://mastodon.social/@jan/109363196538463111",
		Content:   "<p>Great post!</p>",
		CreatedAt: createdAt,
		Account: mastodon.Account{
			DisplayName: "Jan",
			URL:         "https://mastodon.social/@jan",
			Avatar:      "https://files.mastodon.social/jan.png",
		},
	}

	draft := FromReply(42, reply, "127.0.0.1")

	assert.Equal(t, int64(42), draft.PostID)
	assert.Equal(t, "Jan", draft.Author)
	assert.Equal(t, "https://mastodon.social/@jan", draft.AuthorURL)
	assert.Equal(t, "someone@example.com", draft.AuthorEmail)
	assert.Equal(t, "127.0.0.1", draft.AuthorIP)
	// Content is stored verbatim; no sanitization here.
	assert.Equal(t, "<p>Great post!</p>", draft.Content)
	// The remote timestamp must survive, not the import time.
	assert.Equal(t, createdAt, draft.CreatedAt)
}

func TestFromFavoriteAnchorsToPostPublishTime(t *testing.T) {
	published := time.Date(2023, 10, 1, 8, 0, 0, 0, time.UTC)

	account := mastodon.Account{
		DisplayName: "Eve",
		URL:         "https://example.social/@eve",
	}

	draft := FromFavorite(7, account, published, "")

	assert.Equal(t, int64(7), draft.PostID)
	assert.Equal(t, "Eve", draft.Author)
	assert.Equal(t, "… favorited this!", draft.Content)
	assert.Equal(t, published, draft.CreatedAt)
	assert.Empty(t, draft.AuthorIP)
	assert.WithinDuration(t, published, draft.CreatedAt, 0)
}

func TestFromBoostAnchorsToPostPublishTime(t *testing.T) {
	published := time.Date(2023, 10, 1, 8, 0, 0, 0, time.UTC)

	account := mastodon.Account{
		DisplayName: "Bob",
		URL:         "https://example.social/@bob",
	}

	draft := FromBoost(7, account, published, "10.0.0.1")

	assert.Equal(t, "… reblogged this!", draft.Content)
	assert.Equal(t, published, draft.CreatedAt)
	assert.Equal(t, "10.0.0.1", draft.AuthorIP)
	assert.Equal(t, "https://example.social/@bob", draft.AuthorURL)
}
