package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kb-chat/backend/internal/metrics"
	"github.com/kb-chat/backend/internal/server"
	"github.com/kb-chat/backend/pkg/config"
	appLogger "github.com/kb-chat/backend/pkg/logger"
)

func main() {
	// Absent .env is fine; the environment may carry everything.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting knowledge base chat server")

	metrics.Init()

	app, err := server.Build(context.Background(), cfg)
	if err != nil {
		appLogger.Fatal("Failed to build server", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
