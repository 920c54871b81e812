package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/config"
	"github.com/kaffeewerk/brewcore/internal/journal"
	"github.com/kaffeewerk/brewcore/internal/system"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Config loaded successfully")

	var jrnl *journal.Journal
	if cfg.Journal.Enabled {
		client, err := journal.NewPostgresClient(cfg.Journal)
		if err != nil {
			logger.Fatal("Failed to connect to journal database", zap.Error(err))
		}
		jrnl = journal.New(client, logger)
		if err := jrnl.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("Failed to prepare journal schema", zap.Error(err))
		}
		logger.Info("Event journal connected")
	}

	lifecycle := system.NewLifecycleManager(cfg, jrnl, logger)

	if err := lifecycle.Start(); err != nil {
		logger.Fatal("Failed to start system", zap.Error(err))
	}

	logger.Info("brewcore started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := lifecycle.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("brewcore stopped successfully")
}
