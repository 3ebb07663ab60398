// Package cms defines the interface to the content-management system that
// owns the posts and comments. The importer only needs a narrow CRUD
// surface: find cross-posted posts, insert a comment, attach comment meta.
package cms

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateComment is returned by InsertComment when the CMS rejects a
// comment as a duplicate of one it already has. The CMS's own duplicate rule
// is stricter than our ledger and may fire first, e.g. when the ledger table
// was lost but the comments survived. Callers treat it as success-equivalent.
var ErrDuplicateComment = errors.New("duplicate comment")

// Post is a local post that was cross-posted to Mastodon. CrossPostURL is
// the stored URL of the copy on the remote instance; the importer only ever
// reads it.
type Post struct {
	ID           int64
	Type         string
	PublishedAt  time.Time
	CrossPostURL string
}

// CommentDraft is everything needed to insert one comment.
type CommentDraft struct {
	PostID      int64
	Author      string
	AuthorEmail string
	AuthorURL   string
	AuthorIP    string
	Content     string
	CreatedAt   time.Time
}

// Store is the CMS collaborator.
type Store interface {
	// FindCrossPostedPosts returns posts of the given types, published
	// after since, that carry a non-empty cross-post link.
	FindCrossPostedPosts(ctx context.Context, postTypes []string, since time.Time) ([]Post, error)

	// InsertComment creates a comment and returns its ID. Returns an error
	// wrapping ErrDuplicateComment when the CMS considers it a duplicate.
	InsertComment(ctx context.Context, draft CommentDraft) (int64, error)

	// SetCommentMeta attaches a key/value annotation to a comment.
	SetCommentMeta(ctx context.Context, commentID int64, key, value string) error
}
