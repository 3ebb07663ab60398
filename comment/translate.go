// Package comment turns remote interactions into comment drafts. Pure
// mapping, no I/O.
package comment

import (
	"time"

	"github.com/crossposter/mastodon-comments/cms"
	"github.com/crossposter/mastodon-comments/mastodon"
)

// Imported comments get a fixed placeholder email; Mastodon does not expose
// one and the CMS wants the field filled.
const placeholderEmail = "someone@example.com"

const (
	favoriteNotice = "… favorited this!"
	boostNotice    = "… reblogged this!"
)

// FromReply maps a reply status onto a comment draft. The content is stored
// verbatim and the remote created_at is preserved; the import time never
// leaks into the comment.
func FromReply(postID int64, reply mastodon.Status, authorIP string) cms.CommentDraft {
	return cms.CommentDraft{
		PostID:      postID,
		Author:      reply.Account.DisplayName,
		AuthorEmail: placeholderEmail,
		AuthorURL:   reply.Account.URL,
		AuthorIP:    authorIP,
		Content:     reply.Content,
		CreatedAt:   reply.CreatedAt,
	}
}

// FromFavorite maps a favoriting account onto a "favorited this" notice.
// The API exposes no timestamp for favorites, so the draft is anchored to
// the post's own publish time. A deliberate approximation, not a defect.
func FromFavorite(postID int64, account mastodon.Account, postPublished time.Time, authorIP string) cms.CommentDraft {
	draft := fromAccount(postID, account, postPublished, authorIP)
	draft.Content = favoriteNotice

	return draft
}

// FromBoost is FromFavorite for boosts, with the matching notice text.
func FromBoost(postID int64, account mastodon.Account, postPublished time.Time, authorIP string) cms.CommentDraft {
	draft := fromAccount(postID, account, postPublished, authorIP)
	draft.Content = boostNotice

	return draft
}

func fromAccount(postID int64, account mastodon.Account, postPublished time.Time, authorIP string) cms.CommentDraft {
	return cms.CommentDraft{
		PostID:      postID,
		Author:      account.DisplayName,
		AuthorEmail: placeholderEmail,
		AuthorURL:   account.URL,
		AuthorIP:    authorIP,
		CreatedAt:   postPublished,
	}
}
