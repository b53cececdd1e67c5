package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "loan-engine/docs"
	"loan-engine/internal/api"
	"loan-engine/internal/api/middleware"
	"loan-engine/internal/batch"
	"loan-engine/internal/config"
	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/eligibility"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/event"
	"loan-engine/internal/infrastructure/database/postgres"
	"loan-engine/internal/infrastructure/logging"
	"loan-engine/internal/ingestion"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Loan Engine API
// @version 1.0
// @description Customer registration, credit eligibility, loan origination and spreadsheet ingestion.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	policy, err := loan.ParseDebtPolicy(cfg.Ingestion.DebtPolicy)
	if err != nil {
		logger.Error("Invalid debt policy", "error", err)
		os.Exit(1)
	}

	redisClient := initializeRedisClient(cfg, logger)
	rabbitMQConn, err := setupRabbitMQ(cfg, logger)
	if err != nil {
		logger.Error("RabbitMQ unavailable; ingestion jobs are disabled", "error", err)
	}
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg.Server.RateLimit, redisClient, logger)
	defer rateLimiter.Close()

	customerRepo := postgres.NewCustomerRepository(dbPool, logger)
	loanRepo := postgres.NewLoanRepository(dbPool, policy, logger)
	services := initializeServices(customerRepo, loanRepo, logger)

	consumer := initializeIngestion(cfg, &services, customerRepo, loanRepo, rabbitMQConn, redisClient, logger)

	cronScheduler := startBatchJobs(cfg, logger, batch.NewDebtRecomputeJob(loanRepo, policy, logger))
	router := api.SetupRouter(rateLimiter, services, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, consumer, rabbitMQConn, redisClient, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed(), "debt_policy", cfg.Ingestion.DebtPolicy)

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	ctx := context.Background()
	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	if cfg.Database.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, dbPool, logger); err != nil {
			logger.Error("Failed to ensure database schema", "error", err)
			dbPool.Close()
			os.Exit(1)
		}
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func initializeServices(customerRepo *postgres.CustomerRepository, loanRepo *postgres.LoanRepository, logger *slog.Logger) api.Services {
	logger.Info("Initializing application components...")
	customerService := customer.NewCustomerService(customerRepo, logger)
	loanService := loan.NewLoanService(loanRepo, customerService, logger)
	evaluator := eligibility.NewEvaluator(customerRepo, loanRepo, time.Now, logger)

	return api.Services{
		Customers:   customerService,
		Eligibility: eligibility.NewService(evaluator, loanService, logger),
		Loans:       loanService,
	}
}

// initializeIngestion wires the job publisher, status store and consumer. It leaves
// services.Ingestion nil when RabbitMQ is unavailable.
func initializeIngestion(
	cfg *config.Config,
	services *api.Services,
	customerRepo *postgres.CustomerRepository,
	loanRepo *postgres.LoanRepository,
	rabbitConn *amqp.Connection,
	redisClient *redis.Client,
	logger *slog.Logger,
) *event.Consumer {
	if rabbitConn == nil {
		return nil
	}

	publisher, err := event.NewJobPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create ingestion job publisher", "error", err)
		return nil
	}

	store := ingestion.NewRedisStatusStore(redisClient, cfg.Ingestion.ResultTTL, logger)
	reconciler := ingestion.NewReconciler(customerRepo, loanRepo, logger)
	svc := ingestion.NewService(reconciler, store, publisher, cfg.Ingestion.JobTimeout, logger)
	services.Ingestion = svc

	jobHandler := event.NewJobHandler(svc, logger)
	consumer, err := event.NewConsumer(rabbitConn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.ConsumerTag, jobHandler.HandleDelivery, logger)
	if err != nil {
		logger.Error("Failed to create ingestion consumer", "error", err)
		return nil
	}
	if err := consumer.Start(context.Background()); err != nil {
		logger.Error("Failed to start ingestion consumer", "error", err)
		return nil
	}
	return consumer
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, consumer *event.Consumer, rabbitConn *amqp.Connection,
	redisClient *redis.Client, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	if consumer != nil {
		consumer.Stop()
	}
	shutdownHTTPServer(srv, serverErrors, logger)
	closeRabbitMQConnection(rabbitConn, logger)
	closeRedisClient(redisClient, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			return "server error"
		}
		logger.Info("Server goroutine finished before signal.")
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	if cronScheduler == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	switch {
	case rabbitConn == nil:
		logger.Info("RabbitMQ connection was not established, skipping close.")
	case rabbitConn.IsClosed():
		logger.Info("RabbitMQ connection already closed, skipping close.")
	default:
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	logger.Info("Initializing central Redis client...")
	if cfg.Redis.Addr == "" {
		logger.Error("Redis address (addr) is not configured.")
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if status := rdb.Ping(ctx); status.Err() != nil {
		logger.Error("Failed to connect to Redis", "error", status.Err(), "addr", cfg.Redis.Addr)
		_ = rdb.Close()
		os.Exit(1)
	}

	logger.Info("Central Redis client connected successfully.", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	return rdb
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient == nil {
		logger.Info("Redis client was not initialized, skipping close.")
		return
	}
	logger.Info("Closing central Redis client connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close central Redis client connection gracefully", "error", err)
	} else {
		logger.Info("Central Redis client connection closed.")
	}
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, debtJob batch.Job) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.DebtRecomputeSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 2 * * *"
		logger.Warn("Debt recompute schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.DebtRecomputeTimeout
	if jobTimeout <= 0 {
		jobTimeout = time.Hour
	}

	if _, err := batch.Schedule(c, scheduleSpec, jobTimeout, debtJob, logger); err != nil {
		logger.Error("Debt recompute job not scheduled", "error", err)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, error) {
	uri, err := cfg.RabbitMQ.URI()
	if err != nil {
		return nil, err
	}
	return event.Dial(uri, logger)
}
