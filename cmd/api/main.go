package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgeting/internal/client"
	"budgeting/internal/config"
	"budgeting/internal/database"
	"budgeting/internal/logger"
	"budgeting/internal/server"
	"budgeting/internal/services"
)

// @title           Budgeting API
// @version         1.0
// @description     Personal finance budgeting backend: wallets, categorized transactions, summaries and budgets.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("Failed to close database", "error", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	httpClient := &http.Client{Timeout: appConfig.IdentityTimeout}
	core := client.NewCoreClient(appConfig.CoreURL, appConfig.CoreAPIKey, httpClient)

	router := server.NewRouter(server.Deps{
		DB:        dbManager.DB(),
		Identity:  client.NewIdentityClient(appConfig.IdentityURL, httpClient),
		Directory: core,
		Provider:  client.NewPlaidClient(appConfig.PlaidURL, appConfig.PlaidClientID, appConfig.PlaidSecret, appConfig.PlaidPageSize, httpClient),
		Sender:    client.NewNotifyClient(appConfig.NotifyURL, httpClient),
	}, server.Options{
		SystemToken: appConfig.SystemToken,
		JWTSecret:   appConfig.IdentityJWTSecret,
		Jobs: services.JobOptions{
			BatchSize:       appConfig.JobBatchSize,
			TimeBudget:      appConfig.JobTimeBudget,
			BudgetEndWindow: appConfig.BudgetEndWindow,
		},
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting budgeting server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
