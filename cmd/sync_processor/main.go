package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/procure-finance-sync/internal/config"
	"github.com/procure-finance-sync/internal/data/mongo"
	"github.com/procure-finance-sync/internal/data/postgres"
	"github.com/procure-finance-sync/internal/engine"
	"github.com/procure-finance-sync/internal/logger"
	"github.com/procure-finance-sync/internal/platform/messaging/consumers"
	"github.com/procure-finance-sync/internal/platform/messaging/producers"
	"github.com/procure-finance-sync/internal/platform/persistence"
	"github.com/procure-finance-sync/internal/platform/remote"
	"github.com/procure-finance-sync/internal/sync_processor/consumer"
	"github.com/procure-finance-sync/internal/sync_processor/poller"
	"github.com/procure-finance-sync/internal/sync_processor/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("sync_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Sync Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	transferRepo := postgres.NewTransferRepository(log, postgresDB)
	closureRepo := postgres.NewClosureRepository(log, postgresDB)
	orderRepo := postgres.NewOrderRepository(log, postgresDB)
	financeMapRepo := postgres.NewFinanceMapRepository(log, postgresDB)
	integrationMapRepo := postgres.NewIntegrationMapRepository(log, postgresDB)
	syncLogRepo := mongo.NewSyncLogRepository(log, mongoDB.Database())

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	// Initialize remote client and engines. The processor executes tasks
	// inline, so the transfer engine runs without a dispatcher.
	remoteClient := remote.NewClient(log, &cfg.Remote)
	transferEngine := engine.NewTransferEngine(log, transferRepo, syncLogRepo, integrationMapRepo, remoteClient, nil)
	closureEngine := engine.NewClosureEngine(log, closureRepo, remoteClient, &cfg.Remote, nil)
	orderOrchestrator := engine.NewOrderOrchestrator(log, orderRepo, financeMapRepo, integrationMapRepo, transferEngine, remoteClient, syncLogRepo, &cfg.Remote)
	reconciliationRobot := engine.NewReconciliationRobot(log, orderRepo, financeMapRepo, integrationMapRepo, transferEngine, remoteClient, &cfg.Remote)

	// Initialize task executor fronted by the worker pool
	baseExecutor := service.NewEngineTaskExecutor(log, transferEngine, closureEngine, orderOrchestrator, reconciliationRobot)
	taskExecutor, err := service.NewWorkerPoolExecutor(baseExecutor, service.WorkerPoolConfig{Size: cfg.WorkerPool.Size}, log)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize task event handler
	taskEventHandler := consumer.NewTaskEventHandler(log, taskExecutor, dlqProducer)

	// Initialize background pollers
	sweeper := poller.NewPoller(&cfg.Poller, transferEngine, closureEngine, orderOrchestrator, reconciliationRobot, log)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.TaskTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.TaskTopic, cfg.Kafka.ConsumerGroup, taskEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start pollers in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shut down the worker pool
	taskExecutor.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Sync Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Sync Processor shutdown completed with errors")
	} else {
		log.Info("Sync Processor shutdown completed successfully")
	}
}
