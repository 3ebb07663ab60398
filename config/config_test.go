package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[mastodon]
host = "https://mastodon.example"
access_token = "secret"

[import]
post_types = ["post", "page"]
lookback_days = 7

[options]
data_dir = "/tmp/mastodon-comments"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://mastodon.example", cfg.Mastodon.Host)
	assert.Equal(t, []string{"post", "page"}, cfg.Import.PostTypes)
	assert.Equal(t, 7*24*time.Hour, cfg.LookbackWindow())

	// Unset values pick up their defaults.
	assert.Equal(t, 12*time.Hour, cfg.RunInterval())
	assert.Equal(t, 5*time.Minute, cfg.LockWindow())
	assert.Equal(t, 250*time.Millisecond, cfg.CallSpacing())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := CreateDefaultConfig()
		cfg.Mastodon.Host = "https://mastodon.example"
		cfg.Mastodon.AccessToken = "secret"
		return cfg
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Mastodon.Host = ""
	assert.ErrorIs(t, cfg.Validate(), ErrMissingHost)

	cfg = base()
	cfg.Mastodon.Host = "not a url"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidHost)

	cfg = base()
	cfg.Mastodon.AccessToken = " "
	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)

	cfg = base()
	cfg.Import.PostTypes = nil
	assert.ErrorIs(t, cfg.Validate(), ErrMissingPostTypes)
}

func TestEnsureConfigExistsCreatesDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, EnsureConfigExists(configPath))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"post"}, cfg.Import.PostTypes)

	// Incomplete by design; the user still has to fill in credentials.
	assert.Error(t, cfg.Validate())
}
