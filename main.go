package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"appointment-bot/config"
	"appointment-bot/internal/bot"
	"appointment-bot/internal/logger"
	"appointment-bot/internal/services"
	"appointment-bot/internal/storage"
)

func main() {
	// .env не обязателен: в проде переменные приходят из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка загрузки конфигурации")
	}

	logger.Setup(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("Ошибка создания каталога БД")
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка инициализации БД")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Ошибка создания таблиц")
	}
	if err := store.SeedBanners(ctx, bot.BannerDescriptions); err != nil {
		log.Fatal().Err(err).Msg("Ошибка наполнения баннеров")
	}

	schedule := services.NewScheduleService(store, cfg.StartHour, cfg.EndHour)

	appointmentBot, err := bot.New(cfg, store, schedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка создания бота")
	}

	log.Info().Msg("Бот успешно запущен!")
	appointmentBot.Start(ctx)
	log.Info().Msg("Бот остановлен")
}
