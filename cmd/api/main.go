// Package main is the entry point for the goal challenge web API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goal-challenge-bot/internal/api"
	"goal-challenge-bot/internal/config"
	"goal-challenge-bot/internal/gamedata"
	"goal-challenge-bot/internal/pkg/disk"
	"goal-challenge-bot/internal/service"
	"goal-challenge-bot/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	cache, err := store.Open(cfg.Cache.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local cache")
	}
	defer cache.Close()

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
	server := api.NewServer(game, cfg)

	httpServer := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.API.Addr).Msg("API server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	manager.Close(shutdownCtx)

	log.Info().Msg("API server stopped gracefully")
}
