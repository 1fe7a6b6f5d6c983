package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/lakical/speechbot/adapters/gemini"
	mongodb "github.com/lakical/speechbot/adapters/mongo"
	"github.com/lakical/speechbot/domain/repositories"
	"github.com/lakical/speechbot/internal/bot"
	"github.com/lakical/speechbot/internal/config"
	"github.com/lakical/speechbot/internal/dispatch"
	"github.com/lakical/speechbot/internal/keypool"
	"github.com/lakical/speechbot/internal/quota"
	"github.com/lakical/speechbot/internal/web"
	"github.com/lakical/speechbot/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.DownloadsDir, 0o755); err != nil {
		logger.Fatal("Failed to create downloads directory", zap.Error(err))
	}

	// Credential pool. An empty pool is a configuration error surfaced
	// on the first remote call, not at startup.
	pool := keypool.Parse(cfg.GeminiKeys)
	if pool.Len() == 0 {
		logger.Warn("No API credentials configured, remote calls will fail")
	}

	// Durable storage. Unavailability degrades to memory-only usage
	// tracking instead of failing the process.
	var usageRepo repositories.UsageRepository
	var actionRepo repositories.ActionUsageRepository
	mongoClient, err := mongodb.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Warn("MongoDB unavailable, usage tracking is memory-only", zap.Error(err))
	} else {
		usageRepo = mongodb.NewUsageRepository(mongoClient.Database)
		actionRepo = mongodb.NewActionUsageRepository(mongoClient.Database)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongoClient.Close(ctx)
		}()
	}

	ledger := quota.NewLedger(cfg.DailyLimit, cfg.UsageWindow, usageRepo, actionRepo, logger)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		ledger.WarmUp(ctx)
		cancel()
	}

	backend := gemini.New(cfg.GeminiModel, cfg.RequestTimeout, logger)
	dispatcher := dispatch.New(pool, cfg.RequestTimeout, logger)
	service := usecase.NewService(backend, dispatcher, ledger, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram front end
	if cfg.BotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			logger.Fatal("Failed to connect to Telegram", zap.Error(err))
		}
		logger.Info("Telegram bot authorized", zap.String("username", api.Self.UserName))

		b := bot.New(api, service, cfg.MaxUploadBytes(), cfg.MaxMessageChunk, cfg.DownloadsDir, logger)
		go b.Run(ctx)
	} else {
		logger.Warn("BOT_TOKEN not set, Telegram front end disabled")
	}

	// Web front end
	server := web.NewServer(backend, cfg.MaxUploadBytes(), cfg.DownloadsDir, logger)
	go func() {
		if err := server.Start(cfg.WebPort); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Web server stopped", zap.Error(err))
		}
	}()
	logger.Info("Server started", zap.String("port", cfg.WebPort))

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Echo().Shutdown(shutdownCtx); err != nil {
		logger.Error("Web server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
