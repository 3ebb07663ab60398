package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/crossposter/mastodon-comments/avatar"
	"github.com/crossposter/mastodon-comments/cms/wordpress"
	"github.com/crossposter/mastodon-comments/config"
	"github.com/crossposter/mastodon-comments/db"
	"github.com/crossposter/mastodon-comments/db/repository"
	"github.com/crossposter/mastodon-comments/importer"
	"github.com/crossposter/mastodon-comments/logger"
	"github.com/crossposter/mastodon-comments/mastodon"
	"github.com/crossposter/mastodon-comments/service"
)

// App holds everything wired up at startup. Construction happens exactly
// once; the scheduler reuses the same orchestrator for every run.
type App struct {
	Config       *config.Config
	Database     *db.Database
	Orchestrator *importer.Orchestrator
	Service      *service.ImportService
}

func BuildApp(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.Options.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	database, err := db.NewDatabase(cfg.Options.DataDir, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	ledger := repository.NewInteractionRepository(database.DB)

	limiter := rate.NewLimiter(rate.Every(cfg.CallSpacing()), 1)
	client := mastodon.NewClient(cfg.Mastodon.Host, cfg.Mastodon.AccessToken, cfg.Options.UserAgent, limiter)

	store := wordpress.NewClient(cfg.WordPress.BaseURL, cfg.WordPress.Username, cfg.WordPress.AppPassword, cfg.Options.UserAgent)

	orchestrator := importer.NewOrchestrator(cfg, client, store, ledger, logger.Logger)

	if cfg.Options.SaveAvatars {
		orchestrator.Avatars = avatar.NewCache(
			filepath.Join(cfg.Options.DataDir, "avatars"),
			cfg.Options.AvatarBaseURL,
			cfg.Options.UserAgent,
			cfg.AvatarTTL(),
		)
	}

	lock := importer.NewRunLock(cfg.LockWindow())

	return &App{
		Config:       cfg,
		Database:     database,
		Orchestrator: orchestrator,
		Service:      service.NewImportService(orchestrator, lock, cfg.RunInterval(), logger.Logger),
	}, nil
}

func (a *App) Close() {
	if a.Database != nil {
		if err := a.Database.Close(); err != nil {
			logger.Logger.Printf("Error closing database: %v", err)
		}
	}
}
