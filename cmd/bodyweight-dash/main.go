package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rewired-gh/bodyweight-dash/internal/config"
	"github.com/rewired-gh/bodyweight-dash/internal/dataset"
	"github.com/rewired-gh/bodyweight-dash/internal/logger"
	"github.com/rewired-gh/bodyweight-dash/internal/models"
	"github.com/rewired-gh/bodyweight-dash/internal/render"
	"github.com/rewired-gh/bodyweight-dash/internal/server"
	"github.com/rewired-gh/bodyweight-dash/internal/storage"
	"github.com/rewired-gh/bodyweight-dash/internal/telegram"
	"github.com/rewired-gh/bodyweight-dash/internal/trend"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to load dataset: %v", err)
	}
	if ds.Len() == 0 {
		logger.Warn("Dataset %s has no measurements; charts will be empty", ds.Source)
	}

	builder := trend.NewBuilder(trend.Options{
		TitleFormat: cfg.Chart.TitleFormat,
		XAxisTitle:  cfg.Chart.XAxisTitle,
		YAxisTitle:  cfg.Chart.YAxisTitle,
		SegmentDays: cfg.Chart.SegmentDays,
	})
	renderer := render.NewRenderer(cfg.Chart.Width, cfg.Chart.Height)

	srv, err := server.New(cfg.Server, ds, builder, renderer)
	if err != nil {
		logger.Fatal("Failed to create server: %v", err)
	}

	var wg sync.WaitGroup
	if cfg.Telegram.Enabled {
		telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")

		wg.Add(1)
		go func() {
			defer wg.Done()
			telegramClient.ListenForCommands(ctx, ds, builder)
		}()
	} else {
		logger.Debug("Telegram bot disabled")
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error: %v", err)
		cancel()
		wg.Wait()
		os.Exit(1)
	}

	cancel()
	wg.Wait()
	logger.Info("Service stopped")
}

// loadDataset reads the measurements once at startup from the configured source.
func loadDataset(ctx context.Context, cfg *config.Config) (*models.Dataset, error) {
	switch cfg.Dataset.Source {
	case "sqlite":
		store, err := storage.New(cfg.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
		return store.LoadDataset()
	default:
		return dataset.NewLoaderFromConfig(cfg.Dataset).Load(ctx, cfg.Dataset.Path)
	}
}
