// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: выбирает движок хранилища по DSN, создаёт
// сервисы, фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"parkwatch.sg/telegram-bot/internal/bot"
	"parkwatch.sg/telegram-bot/internal/bot/filters"
	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/config"
	"parkwatch.sg/telegram-bot/internal/db"
	"parkwatch.sg/telegram-bot/internal/db/postgres"
	"parkwatch.sg/telegram-bot/internal/db/sqlite"
	"parkwatch.sg/telegram-bot/internal/features/feedback"
	"parkwatch.sg/telegram-bot/internal/features/moderation"
	"parkwatch.sg/telegram-bot/internal/features/reports"
	"parkwatch.sg/telegram-bot/internal/features/subscriptions"
	"parkwatch.sg/telegram-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Store     db.Store
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище: postgres в проде, sqlite для разработки ===
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия хранилища: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Сервисы ===
	clock := common.RealClock{}
	reportService := reports.NewService(store, cfg, clock)
	feedbackService := feedback.NewService(store, cfg, clock)
	moderationService := moderation.NewService(store, cfg)
	subscriptionService := subscriptions.NewService(store)

	// === 4. Фильтры ===
	access := filters.NewAccessFilter(cfg, moderationService)

	// === 5. Собираем бота ===
	b := bot.New(
		botAPI, cfg, clock, store,
		reportService,
		feedbackService,
		moderationService,
		subscriptionService,
		access,
	)

	// === 6. Планировщик задач ===
	scheduler := jobs.NewScheduler(reportService)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Store:     store,
		BotAPI:    botAPI,
	}, nil
}

// openStore выбирает движок по схеме DSN и применяет миграции.
func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if cfg.UsePostgres() {
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return postgres.NewStore(pool), nil
	}

	log.Warn("DATABASE_URL не похож на postgres:// — используем встроенный SQLite (дев-режим)")
	return sqlite.Open(cfg.DatabaseDSN())
}
