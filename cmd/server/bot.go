package main

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/foodlist/internal/config"
	"github.com/example/foodlist/internal/services"
)

// connectBot returns nil when no bot token is configured.
func connectBot(cfg *config.Config, log *slog.Logger) (*tgbotapi.BotAPI, error) {
	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set, confirmation prompts disabled")
		return nil, nil
	}
	api, err := services.NewBotAPI(cfg.TelegramBotToken, log)
	if err != nil {
		return nil, err
	}
	api.Debug = cfg.IsDevelopment() && cfg.LogLevel == "debug"
	log.Info("telegram bot authorized", "username", api.Self.UserName)
	return api, nil
}
