// Package main provides the game server binary: the HTTP/SSE API over the
// in-memory session engine, with optional autonomous agent opponents.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/config"
	"github.com/pmourey/fungame/internal/game/bot"
	"github.com/pmourey/fungame/internal/game/dice"
	"github.com/pmourey/fungame/internal/game/entity"
	"github.com/pmourey/fungame/internal/game/session"
	"github.com/pmourey/fungame/internal/gameserver"
	"github.com/pmourey/fungame/internal/observability"
	"github.com/pmourey/fungame/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = built-in defaults")
	templatesDir := flag.String("templates-dir", "", "path to monster template YAML directory; overrides config")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *templatesDir != "" {
		cfg.Game.TemplatesDir = *templatesDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	roller := dice.NewRoller(dice.NewCryptoSource(), logger)

	sessCfg, err := session.NewConfig(cfg.Game.GridWidth, cfg.Game.GridHeight, cfg.Game.AttackDie, cfg.Game.DamageDie)
	if err != nil {
		logger.Fatal("invalid dice configuration", zap.Error(err))
	}

	var templates []*entity.Template
	if cfg.Game.TemplatesDir != "" {
		loaded, err := entity.LoadTemplates(cfg.Game.TemplatesDir)
		if err != nil {
			logger.Fatal("loading monster templates", zap.Error(err))
		}
		for _, t := range loaded {
			templates = append(templates, t)
		}
		logger.Info("monster templates loaded",
			zap.Int("count", len(loaded)),
			zap.String("dir", cfg.Game.TemplatesDir),
		)
	}

	hub := gameserver.NewHub(logger)
	registry := session.NewRegistry(sessCfg, roller, hub.OnStateChanged, logger)

	supervisor := bot.NewSupervisor(bot.Config{
		Name:          cfg.Bot.Name,
		ThinkInterval: cfg.Bot.ThinkInterval,
		StopTimeout:   cfg.Bot.StopTimeout,
	}, roller, logger)

	svc := gameserver.NewService(registry, supervisor, templates, cfg.Bot.AutoAttach, logger)
	httpSrv := gameserver.NewServer(cfg.Server.Addr(), svc, hub, logger)

	logger.Info("starting game server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("auto_bot", cfg.Bot.AutoAttach),
		zap.Duration("startup", time.Since(start)),
	)

	lc := server.NewLifecycle(logger)
	lc.Add("http", httpSrv)

	err = lc.Run(context.Background())
	svc.Shutdown()
	if err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
