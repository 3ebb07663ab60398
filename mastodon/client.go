package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client wraps the handful of read-only status endpoints we poll. Every
// request goes through the injected rate limiter, which is how call spacing
// is enforced across an entire run; callers never sleep themselves.
type Client struct {
	host        string
	accessToken string
	userAgent   string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewClient(host, accessToken, userAgent string, limiter *rate.Limiter) *Client {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(250*time.Millisecond), 1)
	}

	return &Client{
		host:        strings.TrimRight(host, "/"),
		accessToken: accessToken,
		userAgent:   userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
	}
}

// FetchReplies returns the descendants of a status, i.e. everything posted
// in reply to it (directly or further down the thread).
func (c *Client) FetchReplies(ctx context.Context, statusID string) ([]Status, error) {
	var statusContext Context
	if err := c.get(ctx, "/api/v1/statuses/"+url.PathEscape(statusID)+"/context", &statusContext); err != nil {
		return nil, err
	}

	return statusContext.Descendants, nil
}

// FetchFavorites returns the accounts that favorited a status.
func (c *Client) FetchFavorites(ctx context.Context, statusID string) ([]Account, error) {
	var accounts []Account
	if err := c.get(ctx, "/api/v1/statuses/"+url.PathEscape(statusID)+"/favourited_by", &accounts); err != nil {
		return nil, err
	}

	return accounts, nil
}

// FetchBoosts returns the accounts that boosted a status.
func (c *Client) FetchBoosts(ctx context.Context, statusID string) ([]Account, error) {
	var accounts []Account
	if err := c.get(ctx, "/api/v1/statuses/"+url.PathEscape(statusID)+"/reblogged_by", &accounts); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request to %s failed with status code %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}

// StatusIDFromURL extracts the numeric status ID from a status URL, e.g.
// "https://mastodon.social/@user/109363196538463111". Cross-post links store
// the full URL; the API wants just the ID.
func StatusIDFromURL(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	raw = strings.TrimRight(raw, "/")

	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[i+1:]
	}

	return raw
}
