package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"contabile/internal/amqp"
	"contabile/internal/config"
	"contabile/internal/eventstore"
	"contabile/internal/export"
	"contabile/internal/log"
	"contabile/internal/projection"
	"contabile/internal/storage"

	"contabile/internal/account"
	"contabile/internal/ledger"
	"contabile/internal/movementtype"
	"contabile/internal/tagcategory"
	"contabile/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(logLevel(cfg.LogLevel))
	log.SetDefault(logger)

	logger.Info("Starting contabile-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	registry := eventstore.NewRegistry()
	account.RegisterEvents(registry)
	ledger.RegisterEvents(registry)
	movementtype.RegisterEvents(registry)
	tagcategory.RegisterEvents(registry)

	store, err := eventstore.NewSQLiteStore(cfg.EventStorePath, registry)
	if err != nil {
		logger.Error("Failed to open event store", log.FieldError, err, "path", cfg.EventStorePath)
		os.Exit(1)
	}
	defer store.Close()

	readModel, err := storage.NewSQLiteRepository(cfg.ReadModelPath)
	if err != nil {
		logger.Error("Failed to open read model", log.FieldError, err, "path", cfg.ReadModelPath)
		os.Exit(1)
	}
	defer readModel.Close()

	owner := cfg.NodeID + "-worker"
	manager := projection.NewManager(store, owner, logger)
	procOpts := []eventstore.ProcessorOption{
		eventstore.WithPollInterval(cfg.PollInterval),
		eventstore.WithBatchSize(cfg.BatchSize),
	}
	manager.Register(eventstore.NewProcessor(projection.AccountGroup, owner,
		store, store, projection.NewAccountProjection(readModel), logger, procOpts...))
	manager.Register(eventstore.NewProcessor(projection.LedgerGroup, owner,
		store, store, projection.NewLedgerProjection(readModel), logger, procOpts...))
	manager.Register(eventstore.NewProcessor(projection.MovementTypeGroup, owner,
		store, store, projection.NewMovementTypeProjection(readModel), logger, procOpts...))
	manager.Register(eventstore.NewProcessor(projection.TagCategoryGroup, owner,
		store, store, projection.NewTagCategoryProjection(readModel), logger, procOpts...))

	if cfg.SheetExportEnabled {
		credentials, err := cfg.Credentials()
		if err != nil {
			logger.Error("Failed to load Google credentials", log.FieldError, err)
			os.Exit(1)
		}
		writer, err := export.NewSheetsWriter(context.Background(), credentials,
			cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets writer", log.FieldError, err)
			os.Exit(1)
		}
		// Export is not replayable; rewinding would duplicate sheet rows.
		exportOpts := append(procOpts, eventstore.WithoutReset())
		manager.Register(eventstore.NewProcessor(export.GroupName, owner,
			store, store, export.NewExporter(writer, logger), logger, exportOpts...))
		logger.Info("Sheet export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheet export disabled")
	}

	var consumer worker.NotificationConsumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
	} else {
		logger.Info("AMQP disabled - relying on polling")
	}

	w := worker.New(manager, consumer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Worker running", "groups", strings.Join(manager.Names(), ", "))

	if err := w.Run(ctx); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
