package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cashbux/internal/bot"
	"cashbux/internal/config"
	"cashbux/internal/handlers"
	"cashbux/internal/logger"
	"cashbux/internal/reward"
	"cashbux/internal/storage"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Setup(cfg.LogLevel)

	log.Infof("Initializing database at: %s", cfg.DatabasePath)
	if err := storage.InitDB(cfg.DatabasePath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer storage.CloseDB()

	if err := storage.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin account: %v", err)
	}

	engine := reward.NewEngine(cfg.DailySpinCap, cfg.ConversionRate)

	// Telegram bot, optional: without a token only the HTTP API runs.
	if cfg.TelegramBotToken != "" {
		b, err := bot.New(cfg)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		go b.Start()
		defer b.Stop()
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	// Nightly daily-counter sweep.
	resetWorker := reward.NewResetWorker()
	if err := resetWorker.Start(); err != nil {
		log.Fatalf("Failed to start reset worker: %v", err)
	}
	defer resetWorker.Stop()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewRouter(cfg, engine),
	}

	go func() {
		log.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}
}
