// Package wordpress implements cms.Store against the WordPress REST API.
// The cross-post link lives in the `_share_on_mastodon_url` post meta, which
// must be registered with `show_in_rest` on the WordPress side.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crossposter/mastodon-comments/cms"
)

const (
	// CrossPostMetaKey is where Share on Mastodon stores the status URL.
	CrossPostMetaKey = "_share_on_mastodon_url"

	perPage    = 100
	wpDateGMT  = "2006-01-02T15:04:05"
	maxErrBody = 512
)

// Client talks to a WordPress site using application-password basic auth.
type Client struct {
	baseURL     string
	username    string
	appPassword string
	userAgent   string
	httpClient  *http.Client
}

var _ cms.Store = (*Client)(nil)

func NewClient(baseURL, username, appPassword, userAgent string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		appPassword: appPassword,
		userAgent:   userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type wpPost struct {
	ID      int64  `json:"id"`
	DateGMT string `json:"date_gmt"`
	Type    string `json:"type"`
	Meta    struct {
		ShareOnMastodonURL string `json:"_share_on_mastodon_url"`
	} `json:"meta"`
}

type wpComment struct {
	ID int64 `json:"id"`
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FindCrossPostedPosts pages through each enabled post type and keeps the
// posts that carry a non-empty cross-post link.
func (c *Client) FindCrossPostedPosts(ctx context.Context, postTypes []string, since time.Time) ([]cms.Post, error) {
	var posts []cms.Post

	for _, postType := range postTypes {
		typePosts, err := c.findPostsOfType(ctx, postType, since)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s posts: %w", postType, err)
		}
		posts = append(posts, typePosts...)
	}

	return posts, nil
}

func (c *Client) findPostsOfType(ctx context.Context, postType string, since time.Time) ([]cms.Post, error) {
	var posts []cms.Post

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("after", since.UTC().Format(time.RFC3339))
		query.Set("per_page", strconv.Itoa(perPage))
		query.Set("page", strconv.Itoa(page))
		query.Set("orderby", "id")
		query.Set("order", "desc")
		query.Set("status", "publish")
		query.Set("_fields", "id,date_gmt,type,meta")

		var batch []wpPost
		err := c.do(ctx, http.MethodGet, "/wp-json/wp/v2/"+restBase(postType)+"?"+query.Encode(), nil, &batch)
		if err != nil {
			return nil, err
		}

		for _, p := range batch {
			if p.Meta.ShareOnMastodonURL == "" {
				continue
			}

			published, err := time.ParseInLocation(wpDateGMT, p.DateGMT, time.UTC)
			if err != nil {
				// Leave the zero time; favorites and boosts for this
				// post will be anchored to it, which is at least stable.
				published = time.Time{}
			}

			posts = append(posts, cms.Post{
				ID:           p.ID,
				Type:         postType,
				PublishedAt:  published,
				CrossPostURL: p.Meta.ShareOnMastodonURL,
			})
		}

		if len(batch) < perPage {
			return posts, nil
		}
	}
}

// InsertComment creates the comment with its original (remote) timestamp.
// WordPress's own duplicate detection maps onto cms.ErrDuplicateComment.
func (c *Client) InsertComment(ctx context.Context, draft cms.CommentDraft) (int64, error) {
	payload := map[string]any{
		"post":         draft.PostID,
		"author_name":  draft.Author,
		"author_email": draft.AuthorEmail,
		"author_url":   draft.AuthorURL,
		"content":      draft.Content,
		"date_gmt":     draft.CreatedAt.UTC().Format(wpDateGMT),
		"status":       "approve",
	}
	if draft.AuthorIP != "" {
		payload["author_ip"] = draft.AuthorIP
	}

	var created wpComment
	if err := c.do(ctx, http.MethodPost, "/wp-json/wp/v2/comments", payload, &created); err != nil {
		return 0, err
	}

	return created.ID, nil
}

func (c *Client) SetCommentMeta(ctx context.Context, commentID int64, key, value string) error {
	payload := map[string]any{
		"meta": map[string]string{key: value},
	}

	return c.do(ctx, http.MethodPost, "/wp-json/wp/v2/comments/"+strconv.FormatInt(commentID, 10), payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, v any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.appPassword)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))

		var wpErr wpError
		if json.Unmarshal(data, &wpErr) == nil && wpErr.Code == "comment_duplicate" {
			return fmt.Errorf("%w: %s", cms.ErrDuplicateComment, wpErr.Message)
		}

		return fmt.Errorf("request to %s failed with status code %d: %s", path, resp.StatusCode, string(data))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}

	return nil
}

// restBase maps post types onto their REST collection names. Custom types
// are assumed to use their own name as rest_base.
func restBase(postType string) string {
	switch postType {
	case "post":
		return "posts"
	case "page":
		return "pages"
	default:
		return postType
	}
}
