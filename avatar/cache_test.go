package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossposter/mastodon-comments/mastodon"
)

func testImage(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for x := 0; x < 400; x++ {
		for y := 0; y < 300; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResolveFetchesAndCaches(t *testing.T) {
	fetches := 0
	data := testImage(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer server.Close()

	dir := t.TempDir()
	cache := NewCache(dir, "https://blog.example/avatars", "test-agent", time.Hour)

	account := mastodon.Account{
		DisplayName: "Jan",
		URL:         "https://mastodon.social/@jan",
		Avatar:      server.URL + "/jan.png?v=2",
	}

	ref, err := cache.Resolve(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example/avatars/mastodon-social-jan.png", ref)

	// The stored file is a 150x150 thumbnail.
	path := filepath.Join(dir, "mastodon-social-jan.png")
	img, err := decodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())

	// A second resolve within the TTL never touches the network.
	ref, err = cache.Resolve(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example/avatars/mastodon-social-jan.png", ref)
	assert.Equal(t, 1, fetches)
}

func TestResolveNoAvatar(t *testing.T) {
	cache := NewCache(t.TempDir(), "", "", time.Hour)

	ref, err := cache.Resolve(context.Background(), mastodon.Account{URL: "https://remote/@x"})
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestResolveNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := NewCache(t.TempDir(), "", "", time.Hour)

	ref, err := cache.Resolve(context.Background(), mastodon.Account{
		URL:    "https://remote/@x",
		Avatar: server.URL + "/x.png",
	})
	assert.Error(t, err)
	assert.Empty(t, ref)
}

func TestResolveWithoutBaseURLReturnsPath(t *testing.T) {
	data := testImage(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	dir := t.TempDir()
	cache := NewCache(dir, "", "", time.Hour)

	ref, err := cache.Resolve(context.Background(), mastodon.Account{
		URL:    "https://remote/@x",
		Avatar: server.URL + "/x.webp",
	})
	require.NoError(t, err)

	// webp can't be encoded, so the thumbnail falls back to jpg.
	assert.Equal(t, filepath.Join(dir, "remote-x.jpg"), ref)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "mastodon-social-jan", slugify("https://mastodon.social/@jan"))
	assert.Equal(t, "remote-x", slugify("http://remote/@x/"))
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
