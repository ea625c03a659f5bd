// Package main is the entry point for the goal challenge Telegram bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goal-challenge-bot/internal/bot"
	"goal-challenge-bot/internal/config"
	"goal-challenge-bot/internal/gamedata"
	"goal-challenge-bot/internal/pkg/disk"
	"goal-challenge-bot/internal/reminder"
	"goal-challenge-bot/internal/service"
	"goal-challenge-bot/internal/store"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the durable local cache
	cache, err := store.Open(cfg.Cache.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local cache")
	}
	defer cache.Close()

	// Wire the remote store and the synchronization manager
	diskClient := disk.NewClient(cfg.Disk.Token)
	manager := gamedata.NewManager(
		gamedata.DiskRemote{Client: diskClient},
		cache,
		gamedata.DiskClassifier(),
		gamedata.Options{
			Path:         cfg.Disk.FilePath,
			SyncDelay:    cfg.Sync.Delay,
			UrgentDelay:  cfg.Sync.UrgentDelay,
			RefreshGrace: cfg.Sync.RefreshGrace,
		},
	)

	game := service.NewGameService(manager)

	// Initialize bot with a reminder scheduler
	telegramBot, err := bot.New(&bot.Dependencies{
		Config: cfg,
		Game:   game,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	scheduler := reminder.NewScheduler(game, telegramBot.Telebot())
	telegramBot.SetReminder(scheduler)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go scheduler.Run(ctx)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	cancel()

	// Flush any pending remote sync before exit
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	manager.Close(shutdownCtx)

	log.Info().Msg("Bot stopped gracefully")
}
