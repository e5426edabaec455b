package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/procure-finance-sync/internal/api_gateway"
	"github.com/procure-finance-sync/internal/api_gateway/service"
	"github.com/procure-finance-sync/internal/config"
	"github.com/procure-finance-sync/internal/data/mongo"
	"github.com/procure-finance-sync/internal/data/postgres"
	"github.com/procure-finance-sync/internal/engine"
	"github.com/procure-finance-sync/internal/logger"
	"github.com/procure-finance-sync/internal/platform/messaging/producers"
	"github.com/procure-finance-sync/internal/platform/persistence"
	"github.com/procure-finance-sync/internal/platform/remote"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

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

	// Initialize Kafka producer for task dispatch
	taskProducer, err := producers.NewTaskMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize task Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	transferRepo := postgres.NewTransferRepository(log, postgresDB)
	closureRepo := postgres.NewClosureRepository(log, postgresDB)
	orderRepo := postgres.NewOrderRepository(log, postgresDB)
	financeMapRepo := postgres.NewFinanceMapRepository(log, postgresDB)
	integrationMapRepo := postgres.NewIntegrationMapRepository(log, postgresDB)
	syncLogRepo := mongo.NewSyncLogRepository(log, mongoDB.Database())

	// Initialize remote client and engines
	remoteClient := remote.NewClient(log, &cfg.Remote)
	transferEngine := engine.NewTransferEngine(log, transferRepo, syncLogRepo, integrationMapRepo, remoteClient, taskProducer)
	closureEngine := engine.NewClosureEngine(log, closureRepo, remoteClient, &cfg.Remote, taskProducer)
	orderOrchestrator := engine.NewOrderOrchestrator(log, orderRepo, financeMapRepo, integrationMapRepo, transferEngine, remoteClient, syncLogRepo, &cfg.Remote)

	// Initialize services
	transferService := service.NewTransferService(log, transferEngine, transferRepo)
	closureService := service.NewClosureService(log, closureEngine, closureRepo)
	orderService := service.NewOrderService(log, orderOrchestrator, taskProducer)
	robotService := service.NewRobotService(log, taskProducer)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, transferService, closureService, orderService, robotService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = taskProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
