package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sparet/internal/app"
	"sparet/internal/auth"
	"sparet/internal/config"
	"sparet/internal/content"
	"sparet/internal/domain"
	httpTransport "sparet/internal/transport/http"
)

func main() {
	// Best effort: local development reads .env, production uses real env
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var logger *slog.Logger
	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting game server",
		"port", cfg.Server.Port,
		"publicBaseUrl", cfg.Server.PublicBaseURL,
	)

	settings := domain.GameSettings{
		MaxPlayers:        cfg.Game.MaxPlayers,
		BrakeCooldownMs:   cfg.Game.BrakeCooldown.Milliseconds(),
		FollowupTimerMs:   cfg.Game.FollowupTimer.Milliseconds(),
		FollowupPoints:    cfg.Game.FollowupPoints,
		SpeedBonusEnabled: cfg.Game.SpeedBonusEnabled,
	}
	pacing := app.Pacing{
		RoundIntroDelay:   cfg.Game.RoundIntroDelay,
		FollowupTimer:     cfg.Game.FollowupTimer,
		ScoreboardAdvance: cfg.Game.ScoreboardAdvance,
		ClueTimersEnabled: cfg.Game.ClueTimersEnabled,
	}

	hub := app.NewSessionHub(settings, pacing, cfg.Game.SessionMaxAge, cfg.Game.SessionCleanupPeriod, logger)
	defer hub.Close()

	authority := auth.NewAuthority(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, nil)
	packs := content.NewStore(cfg.Content.PacksDir, logger)
	gen := content.NewClient(cfg.Content.ServiceURL, cfg.Content.RequestTimeout, logger)

	server := httpTransport.NewServer(cfg, hub, authority, packs, gen, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
