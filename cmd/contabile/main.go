package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"contabile/internal/account"
	"contabile/internal/amqp"
	"contabile/internal/commandbus"
	"contabile/internal/config"
	"contabile/internal/eventstore"
	"contabile/internal/ledger"
	"contabile/internal/log"
	"contabile/internal/movementtype"
	"contabile/internal/projection"
	"contabile/internal/saga"
	"contabile/internal/storage"
	"contabile/internal/tagcategory"
	"contabile/internal/validate"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(logLevel(cfg.LogLevel))
	log.SetDefault(logger)

	logger.Info("Starting contabile")

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

	bus := commandbus.New(store, logger)
	bus.RegisterAggregate(account.Definition())
	bus.RegisterAggregate(ledger.Definition())
	bus.RegisterAggregate(movementtype.Definition())
	bus.RegisterAggregate(tagcategory.Definition())
	bus.Use(validate.MovementType(readModel))
	bus.Use(validate.TagCategory(readModel))

	lifecycle := saga.NewLifecycleSaga(bus, logger, cfg.SagaDispatchTimeout)

	manager := projection.NewManager(store, cfg.NodeID, logger)
	procOpts := []eventstore.ProcessorOption{
		eventstore.WithPollInterval(cfg.PollInterval),
		eventstore.WithBatchSize(cfg.BatchSize),
	}
	manager.Register(eventstore.NewProcessor(saga.GroupName, cfg.NodeID,
		store, store, lifecycle.Handler(), logger, procOpts...))
	if cfg.LocalProjections {
		manager.Register(eventstore.NewProcessor(projection.AccountGroup, cfg.NodeID,
			store, store, projection.NewAccountProjection(readModel), logger, procOpts...))
		manager.Register(eventstore.NewProcessor(projection.LedgerGroup, cfg.NodeID,
			store, store, projection.NewLedgerProjection(readModel), logger, procOpts...))
		manager.Register(eventstore.NewProcessor(projection.MovementTypeGroup, cfg.NodeID,
			store, store, projection.NewMovementTypeProjection(readModel), logger, procOpts...))
		manager.Register(eventstore.NewProcessor(projection.TagCategoryGroup, cfg.NodeID,
			store, store, projection.NewTagCategoryProjection(readModel), logger, procOpts...))
	} else {
		logger.Info("Local projections disabled - projection groups run on the worker")
	}

	// Wake local processors right after every append; publish a nudge
	// for remote workers when AMQP is configured.
	bus.Notify(commandbus.NotifierFunc(func(_ context.Context, _ []eventstore.Event) {
		manager.WakeAll()
	}))

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		bus.Notify(commandbus.NotifierFunc(func(ctx context.Context, events []eventstore.Event) {
			lastSeq := events[len(events)-1].GlobalSeq
			if err := amqpClient.PublishEventNotification(ctx, lastSeq, len(events)); err != nil {
				logger.Warn("Failed to publish event notification", log.FieldError, err)
			}
		}))
		logger.Info("AMQP notifications enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - workers rely on polling")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fatal := manager.Run(ctx)
	defer manager.Stop()

	logger.Info("Processing groups running", "groups", strings.Join(manager.Names(), ", "))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-fatal:
		logger.Error("Processing group failed", log.FieldError, err)
		cancel()
		manager.Stop()
		os.Exit(1)
	}
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
