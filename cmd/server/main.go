package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/foodlist/internal/auth"
	"github.com/example/foodlist/internal/bot"
	"github.com/example/foodlist/internal/config"
	"github.com/example/foodlist/internal/database"
	"github.com/example/foodlist/internal/infra"
	"github.com/example/foodlist/internal/logging"
	"github.com/example/foodlist/internal/middleware"
	"github.com/example/foodlist/internal/routes"
	"github.com/example/foodlist/internal/services"
	"github.com/example/foodlist/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment(), log)
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("close postgres", "error", err)
		}
	}()

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				log.Warn("close redis", "error", err)
			}
		}()
	} else {
		log.Warn("REDIS_URL not set, phone-check rate limiting disabled")
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		log.Error("build token service", "error", err)
		os.Exit(1)
	}

	var (
		sender  services.Sender
		channel auth.ConfirmationChannel
	)
	botAPI, err := connectBot(cfg, log)
	if err != nil {
		log.Error("connect telegram", "error", err)
		os.Exit(1)
	}
	if botAPI != nil {
		sender = botAPI
	}
	telegram := services.NewTelegramService(sender, cfg.TelegramAdminChat, log)
	if botAPI != nil {
		channel = telegram
	}

	users := store.NewGormStore(db)
	sessions := auth.NewService(users, tokens, channel, cfg.TokenValidity, log)
	if cfg.ManagerPhone != "" && cfg.ManagerPassword != "" {
		if _, err := sessions.EnsureManager(ctx, cfg.ManagerPhone, cfg.ManagerPassword); err != nil {
			log.Error("seed manager", "error", err)
			os.Exit(1)
		}
	}

	media := services.NewMediaStorage(cfg.MediaRoot)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: middleware.ErrorHandler(log),
		BodyLimit:    16 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:X-Request-ID} ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.Register(app, routes.Deps{
		Config:   cfg,
		DB:       db,
		Cache:    cache,
		Users:    users,
		Sessions: sessions,
		Gate:     auth.NewGate(sessions, log),
		Media:    media,
		QR:       services.NewQRService(media, cfg.PublicBaseURL),
		Notifier: telegram,
		Logger:   log,
	})

	if botAPI != nil {
		go bot.New(sessions, botAPI, log).Run(ctx, botAPI)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Address())
		srvErrCh <- app.Listen(cfg.Address())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer stop()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server exited cleanly")
}
