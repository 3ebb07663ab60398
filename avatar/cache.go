// Package avatar fetches and caches commenter avatars. Everything here is
// best-effort: the import pipeline never waits on more than one bounded
// fetch, and a failure just means the comment goes in without an avatar.
package avatar

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/crossposter/mastodon-comments/mastodon"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	thumbnailSize = 150
	fetchTimeout  = 20 * time.Second
)

// Resolver returns a stable local reference to an account's avatar, or an
// empty string when the account has none. Implementations must be safe to
// call repeatedly for the same account and must not fail the caller on
// network errors beyond returning one.
type Resolver interface {
	Resolve(ctx context.Context, account mastodon.Account) (string, error)
}

// Cache stores 150x150 thumbnails on disk, keyed by a slug of the account
// URL, and reuses a file until it is older than the TTL.
type Cache struct {
	dir        string
	baseURL    string
	userAgent  string
	ttl        time.Duration
	httpClient *http.Client
}

func NewCache(dir, baseURL, userAgent string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	return &Cache{
		dir:       dir,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		ttl:       ttl,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

func (c *Cache) Resolve(ctx context.Context, account mastodon.Account) (string, error) {
	if account.Avatar == "" || account.URL == "" {
		return "", nil
	}

	filename := avatarFilename(account)
	path := filepath.Join(c.dir, filename)

	// A cached thumbnail younger than the TTL is reused without touching
	// the network.
	if fi, err := os.Stat(path); err == nil && time.Since(fi.ModTime()) < c.ttl {
		return c.localRef(filename, path), nil
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, account.Avatar, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar request failed with status code %d", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode avatar: %w", err)
	}

	thumb := imaging.Fill(img, thumbnailSize, thumbnailSize, imaging.Center, imaging.Lanczos)

	if err := imaging.Save(thumb, path); err != nil {
		// Don't leave a half-written file behind to be "cached".
		os.Remove(path)
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}

	return c.localRef(filename, path), nil
}

func (c *Cache) localRef(filename, path string) string {
	if c.baseURL != "" {
		return c.baseURL + "/" + filename
	}

	return path
}

// avatarFilename derives a somewhat nice, but not necessarily unique (!),
// filename from the account URL, e.g. "mastodon-social-jan.png". The
// extension comes from the avatar URL with any query string stripped;
// formats imaging can't encode fall back to jpg.
func avatarFilename(account mastodon.Account) string {
	avatarURL := account.Avatar
	if i := strings.IndexAny(avatarURL, "?#"); i >= 0 {
		avatarURL = avatarURL[:i]
	}

	ext := strings.ToLower(filepath.Ext(avatarURL))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
	default:
		ext = ".jpg"
	}

	return slugify(account.URL) + ext
}

func slugify(raw string) string {
	raw = strings.TrimPrefix(raw, "https://")
	raw = strings.TrimPrefix(raw, "http://")

	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}

	return strings.Trim(b.String(), "-")
}
