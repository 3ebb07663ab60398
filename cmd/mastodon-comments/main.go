package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/crossposter/mastodon-comments/cmd"
	"github.com/crossposter/mastodon-comments/cms"
	"github.com/crossposter/mastodon-comments/config"
	"github.com/crossposter/mastodon-comments/logger"
)

const version = "v1.0.0"

func main() {
	flags, subcommand := cmd.ParseFlags()

	if flags.Version {
		fmt.Printf("mastodon-comments %s\n", version)
		return
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	if err := config.EnsureConfigExists(configPath); err != nil {
		log.Fatal(err)
	}

	if subcommand == "service" {
		cmd.RunService(configPath)
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.InitLogger(cfg.Options.DataDir); err != nil {
		log.Fatal(err)
	}

	logger.Logger.Printf("Starting mastodon-comments %s", version)

	app, err := cmd.BuildApp(cfg)
	if err != nil {
		logger.Logger.Fatal(err)
	}
	defer app.Close()

	if flags.Once {
		runOnce(app)
		return
	}

	go app.Service.Run()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	<-signalChan
	fmt.Println("Received interrupt signal. Shutting down...")
	app.Service.Shutdown()
}

func runOnce(app *cmd.App) {
	if err := app.Config.Validate(); err != nil {
		color.Yellow("Not configured: %v", err)
		return
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Importing interactions"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
	)

	app.Orchestrator.OnPostProcessed = func(post cms.Post) {
		bar.Add(1)
	}

	stats, ok := app.Service.RunOnce(context.Background())
	bar.Finish()
	fmt.Println()

	if !ok {
		color.Yellow("An import run is already in progress. Try again later.")
		return
	}

	color.Green("Checked %d posts: %d interactions imported, %d skipped.", stats.Posts, stats.Imported, stats.Skipped)
	if stats.Failed > 0 {
		color.Red("%d items failed; see the log for details.", stats.Failed)
	}
}
