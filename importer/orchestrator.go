// Package importer drives one synchronization run: find cross-posted posts,
// fetch their remote interactions, and persist whatever the ledger hasn't
// seen yet as comments.
package importer

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/crossposter/mastodon-comments/avatar"
	"github.com/crossposter/mastodon-comments/cms"
	"github.com/crossposter/mastodon-comments/comment"
	"github.com/crossposter/mastodon-comments/config"
	"github.com/crossposter/mastodon-comments/db/repository"
	"github.com/crossposter/mastodon-comments/mastodon"
)

// Comment meta keys written for imported interactions.
const (
	MetaReplyURL = "_mastodon_reply_url"
	MetaAvatar   = "_mastodon_avatar"
)

// InteractionSource is the remote side of the pipeline. *mastodon.Client
// satisfies it; tests substitute fakes.
type InteractionSource interface {
	FetchReplies(ctx context.Context, statusID string) ([]mastodon.Status, error)
	FetchFavorites(ctx context.Context, statusID string) ([]mastodon.Account, error)
	FetchBoosts(ctx context.Context, statusID string) ([]mastodon.Account, error)
}

// RunStats summarizes one run. Failures are per-item; a non-zero Failed
// count does not mean the run aborted.
type RunStats struct {
	Posts    int
	Imported int
	Skipped  int
	Failed   int
}

// Orchestrator is wired up once at startup and reused across runs. All
// collaborators are injected; it holds no global state of its own.
type Orchestrator struct {
	cfg    *config.Config
	client InteractionSource
	store  cms.Store
	ledger repository.InteractionRepository
	logger *log.Logger

	// Avatars is optional; nil disables avatar resolution entirely.
	Avatars avatar.Resolver

	// SkipReply, when set, drops individual replies before translation.
	// Useful to skip replies that were actually sent from the blog itself.
	SkipReply func(post cms.Post, reply mastodon.Status) bool

	// OnPostProcessed fires after each post's three interaction kinds have
	// been handled. Progress reporting hooks in here.
	OnPostProcessed func(post cms.Post)
}

func NewOrchestrator(cfg *config.Config, client InteractionSource, store cms.Store, ledger repository.InteractionRepository, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Orchestrator{
		cfg:    cfg,
		client: client,
		store:  store,
		ledger: ledger,
		logger: logger,
	}
}

// Run executes one full import pass. Only a configuration error aborts it;
// every other failure is scoped to a single fetch or a single item, logged,
// and stepped over.
func (o *Orchestrator) Run(ctx context.Context) RunStats {
	var stats RunStats

	if err := o.cfg.Validate(); err != nil {
		// Not set up (yet). Bail before the first network call.
		o.logger.Printf("[WARN] Skipping import run: %v", err)
		return stats
	}

	since := time.Now().Add(-o.cfg.LookbackWindow())

	posts, err := o.store.FindCrossPostedPosts(ctx, o.cfg.Import.PostTypes, since)
	if err != nil {
		o.logger.Printf("[ERROR] Failed to find cross-posted posts: %v", err)
		return stats
	}

	for _, post := range posts {
		statusID := mastodon.StatusIDFromURL(post.CrossPostURL)
		if statusID == "" {
			continue
		}

		stats.Posts++

		// Strictly sequential per post: replies, favorites, boosts. The
		// client's rate limiter spaces the three API calls out.
		o.importReplies(ctx, post, statusID, &stats)
		o.importAccounts(ctx, post, statusID, kindFavorite, &stats)
		o.importAccounts(ctx, post, statusID, kindBoost, &stats)

		if o.OnPostProcessed != nil {
			o.OnPostProcessed(post)
		}
	}

	return stats
}

func (o *Orchestrator) importReplies(ctx context.Context, post cms.Post, statusID string, stats *RunStats) {
	replies, err := o.client.FetchReplies(ctx, statusID)
	if err != nil {
		// Nothing new this run; the next scheduled run is the retry.
		o.logger.Printf("[WARN] Failed to fetch replies for post %d: %v", post.ID, err)
		return
	}

	for _, reply := range replies {
		if reply.URL == "" {
			continue
		}

		if o.SkipReply != nil && o.SkipReply(post, reply) {
			o.logger.Printf("Skipping the status at %s.", reply.URL)
			stats.Skipped++
			continue
		}

		draft := comment.FromReply(post.ID, reply, o.cfg.Import.AuthorIP)
		o.importItem(ctx, post, reply.URL, draft, reply.Account, reply.URL, stats)
	}
}

type interactionKind string

const (
	kindFavorite interactionKind = "favorite"
	kindBoost    interactionKind = "boost"
)

func (o *Orchestrator) importAccounts(ctx context.Context, post cms.Post, statusID string, kind interactionKind, stats *RunStats) {
	var (
		accounts []mastodon.Account
		err      error
	)

	if kind == kindFavorite {
		accounts, err = o.client.FetchFavorites(ctx, statusID)
	} else {
		accounts, err = o.client.FetchBoosts(ctx, statusID)
	}

	if err != nil {
		o.logger.Printf("[WARN] Failed to fetch %ss for post %d: %v", kind, post.ID, err)
		return
	}

	for _, account := range accounts {
		if account.URL == "" {
			continue
		}

		var draft cms.CommentDraft
		if kind == kindFavorite {
			draft = comment.FromFavorite(post.ID, account, post.PublishedAt, o.cfg.Import.AuthorIP)
		} else {
			draft = comment.FromBoost(post.ID, account, post.PublishedAt, o.cfg.Import.AuthorIP)
		}

		// The account URL is the dedup key here, scoped to this post; the
		// same account favoriting another post is a separate interaction.
		o.importItem(ctx, post, account.URL, draft, account, "", stats)
	}
}

// importItem runs the check-insert-record sequence for one interaction.
// Ordering matters: the ledger is written only once the comment exists, so a
// crash in between re-imports at worst, never loses the dedup record for a
// comment that was actually created.
func (o *Orchestrator) importItem(ctx context.Context, post cms.Post, source string, draft cms.CommentDraft, account mastodon.Account, replyURL string, stats *RunStats) {
	known, err := o.ledger.Exists(source, post.ID)
	if err != nil {
		o.logger.Printf("[ERROR] Ledger lookup failed for %s: %v", source, err)
		stats.Failed++
		return
	}
	if known {
		stats.Skipped++
		return
	}

	commentID, err := o.store.InsertComment(ctx, draft)
	if errors.Is(err, cms.ErrDuplicateComment) {
		// The CMS found a duplicate our table doesn't know about, likely
		// because the two got out of sync. Don't force a ledger entry.
		o.logger.Printf("Skipping %s. The CMS already has this comment.", source)
		stats.Skipped++
		return
	}
	if err != nil {
		o.logger.Printf("[ERROR] Failed to insert comment for %s: %v", source, err)
		stats.Failed++
		return
	}

	if _, err := o.ledger.Record(source, post.ID, draft.AuthorIP); err != nil {
		// The comment exists but the ledger write failed; the next run will
		// hit the CMS's duplicate check instead.
		o.logger.Printf("[ERROR] Failed to record %s in the ledger: %v", source, err)
	}

	stats.Imported++

	// Annotations below are best-effort; the comment stands without them.
	if replyURL != "" {
		if err := o.store.SetCommentMeta(ctx, commentID, MetaReplyURL, replyURL); err != nil {
			o.logger.Printf("[WARN] Failed to store reply URL for comment %d: %v", commentID, err)
		}
	}

	o.attachAvatar(ctx, commentID, account)
}

func (o *Orchestrator) attachAvatar(ctx context.Context, commentID int64, account mastodon.Account) {
	if o.Avatars == nil {
		return
	}

	ref, err := o.Avatars.Resolve(ctx, account)
	if err != nil {
		o.logger.Printf("[WARN] Failed to resolve avatar for %s: %v", account.URL, err)
		return
	}
	if ref == "" {
		return
	}

	if err := o.store.SetCommentMeta(ctx, commentID, MetaAvatar, ref); err != nil {
		o.logger.Printf("[WARN] Failed to store avatar for comment %d: %v", commentID, err)
	}
}
