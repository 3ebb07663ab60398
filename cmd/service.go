package cmd

import (
	"fmt"

	"github.com/crossposter/mastodon-comments/config"
	"github.com/crossposter/mastodon-comments/logger"
	ksvc "github.com/kardianos/service"
)

type Program struct {
	app *App
}

func (p *Program) Start(s ksvc.Service) error {
	go p.run()
	return nil
}

func (p *Program) run() {
	p.app.Service.Run()
}

func (p *Program) Stop(s ksvc.Service) error {
	p.app.Service.Shutdown()
	p.app.Close()
	return nil
}

func RunService(configPath string) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	if err := logger.InitLogger(cfg.Options.DataDir); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		return
	}

	app, err := BuildApp(cfg)
	if err != nil {
		logger.Logger.Printf("Error building importer: %v", err)
		return
	}

	prg := &Program{
		app: app,
	}

	svcConfig := &ksvc.Config{
		Name:        "MastodonComments",
		DisplayName: "Mastodon Comments Importer",
		Description: "Imports Mastodon replies, favorites and boosts as comments on cross-posted posts.",
	}

	s, err := ksvc.New(prg, svcConfig)
	if err != nil {
		logger.Logger.Printf("Error creating service: %v", err)
		return
	}

	err = s.Run()
	if err != nil {
		logger.Logger.Printf("Error running service: %v", err)
	}
}
