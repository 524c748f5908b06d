// Command bodyweight-import loads a measurement CSV into the SQLite store,
// replacing whatever was imported before.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/bodyweight-dash/internal/config"
	"github.com/rewired-gh/bodyweight-dash/internal/dataset"
	"github.com/rewired-gh/bodyweight-dash/internal/logger"
	"github.com/rewired-gh/bodyweight-dash/internal/storage"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	csvPath    = flag.String("csv", "", "CSV file or URL to import (defaults to dataset.path)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	source := *csvPath
	if source == "" {
		source = cfg.Dataset.Path
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := dataset.NewLoaderFromConfig(cfg.Dataset)
	ds, err := loader.Load(ctx, source)
	if err != nil {
		logger.Fatal("Failed to read %s: %v", source, err)
	}

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	info, err := store.ReplaceAll(source, ds.Records())
	if err != nil {
		_ = store.Close()
		logger.Fatal("Import failed: %v", err)
	}
	logger.Info("Imported %d measurements from %s into %s (import %s)",
		info.RowCount, source, cfg.Storage.DBPath, info.ID)
}
