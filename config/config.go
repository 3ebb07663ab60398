package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Configuration errors that make an import run a silent no-op. The scheduler
// keeps running; each trigger re-reads the config and checks again.
var (
	ErrMissingHost      = errors.New("mastodon host is not configured")
	ErrInvalidHost      = errors.New("mastodon host is not a valid URL")
	ErrMissingToken     = errors.New("mastodon access token is not configured")
	ErrMissingPostTypes = errors.New("no post types enabled for import")
)

type Config struct {
	Mastodon  MastodonConfig  `toml:"mastodon"`
	Import    ImportConfig    `toml:"import"`
	WordPress WordPressConfig `toml:"wordpress"`
	Options   OptionsConfig   `toml:"options"`
}

type MastodonConfig struct {
	Host        string `toml:"host"`
	AccessToken string `toml:"access_token"`
}

type ImportConfig struct {
	PostTypes     []string `toml:"post_types"`
	LookbackDays  int      `toml:"lookback_days"`
	IntervalHours int      `toml:"interval_hours"`
	LockMinutes   int      `toml:"lock_minutes"`
	SpacingMs     int      `toml:"spacing_ms"`
	AuthorIP      string   `toml:"author_ip"`
}

type WordPressConfig struct {
	BaseURL     string `toml:"base_url"`
	Username    string `toml:"username"`
	AppPassword string `toml:"app_password"`
}

type OptionsConfig struct {
	DataDir        string `toml:"data_dir"`
	UserAgent      string `toml:"user_agent"`
	SaveAvatars    bool   `toml:"save_avatars"`
	AvatarBaseURL  string `toml:"avatar_base_url"`
	AvatarCacheTTL int    `toml:"avatar_cache_days"`
}

func GetConfigPath() string {
	currentDirConfig := "config.toml"
	if _, err := os.Stat(currentDirConfig); err == nil {
		return currentDirConfig
	}

	return filepath.Join(GetConfigDir(), "config.toml")
}

func GetConfigDir() string {
	var configDir string
	var err error

	if runtime.GOOS == "darwin" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		configDir = filepath.Join(homeDir, ".config")
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			log.Fatal(err)
		}
	}

	return filepath.Join(configDir, "mastodon-comments")
}

func LoadConfig(configPath string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func SaveConfig(cfg *Config, configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(cfg)
}

func EnsureConfigExists(configPath string) error {
	if _, err := os.Stat(filepath.Dir(configPath)); os.IsNotExist(err) {
		err = os.MkdirAll(filepath.Dir(configPath), os.ModePerm)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := CreateDefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			return fmt.Errorf("failed to write default config: %w", err)
		}
		log.Printf("Created default config at %s. Fill in your Mastodon host and access token.", configPath)
	}

	return nil
}

func CreateDefaultConfig() *Config {
	cfg := &Config{
		Import: ImportConfig{
			PostTypes: []string{"post"},
		},
		Options: OptionsConfig{
			DataDir:     filepath.Join(GetConfigDir(), "data"),
			SaveAvatars: true,
		},
	}
	cfg.applyDefaults()

	return cfg
}

func (c *Config) applyDefaults() {
	if c.Import.LookbackDays <= 0 {
		c.Import.LookbackDays = 21
	}
	if c.Import.IntervalHours <= 0 {
		c.Import.IntervalHours = 12
	}
	if c.Import.LockMinutes <= 0 {
		c.Import.LockMinutes = 5
	}
	if c.Import.SpacingMs <= 0 {
		c.Import.SpacingMs = 250
	}
	if c.Options.DataDir == "" {
		c.Options.DataDir = filepath.Join(GetConfigDir(), "data")
	}
	if c.Options.UserAgent == "" {
		c.Options.UserAgent = "mastodon-comments/1.0 (+https://github.com/crossposter/mastodon-comments)"
	}
	if c.Options.AvatarCacheTTL <= 0 {
		c.Options.AvatarCacheTTL = 30
	}
}

// Validate reports whether the config is complete enough to talk to the
// Mastodon API. A run must not make a single network call when this fails.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Mastodon.Host) == "" {
		return ErrMissingHost
	}

	u, err := url.Parse(c.Mastodon.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidHost
	}

	if strings.TrimSpace(c.Mastodon.AccessToken) == "" {
		return ErrMissingToken
	}

	if len(c.Import.PostTypes) == 0 {
		return ErrMissingPostTypes
	}

	return nil
}

func (c *Config) LookbackWindow() time.Duration {
	return time.Duration(c.Import.LookbackDays) * 24 * time.Hour
}

func (c *Config) RunInterval() time.Duration {
	return time.Duration(c.Import.IntervalHours) * time.Hour
}

func (c *Config) LockWindow() time.Duration {
	return time.Duration(c.Import.LockMinutes) * time.Minute
}

func (c *Config) CallSpacing() time.Duration {
	return time.Duration(c.Import.SpacingMs) * time.Millisecond
}

func (c *Config) AvatarTTL() time.Duration {
	return time.Duration(c.Options.AvatarCacheTTL) * 24 * time.Hour
}
