/**
 * @description
 * This is the main entry point for the NutraFlex webhook service. Its primary
 * role is to start an HTTP server that receives payment webhooks from Cakto
 * and reconciles them against the directory service.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Initializes the directory client eagerly, failing fast on bad credentials.
 * - Connects to PostgreSQL for the user-management routes.
 * - Implements graceful shutdown to ensure clean resource cleanup on termination.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for building Go HTTP services.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/jackc/pgx/v5/pgxpool: PostgreSQL connection pooling.
 * - The service's internal packages for config, API handling and the directory client.
 */
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/nutraflex/webhook-service/internal/api"
	"github.com/nutraflex/webhook-service/internal/app"
	"github.com/nutraflex/webhook-service/internal/config"
	"github.com/nutraflex/webhook-service/internal/store"
	"github.com/nutraflex/webhook-service/pkg/directory"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the directory client up front. Invalid credentials abort
	// startup instead of failing on the first webhook.
	directoryClient, err := directory.NewClient(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCredentialsJSON)
	if err != nil {
		log.Fatalf("Failed to initialize directory client: %v", err)
	}
	defer directoryClient.Close()
	log.Println("Directory client initialized")

	// Establish the PostgreSQL connection pool for the user-management routes.
	dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()

	userRepo := store.NewPostgresUserRepository(dbpool)
	if err := userRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("Database connection established")

	// Wire the application layers.
	service := app.NewService(directoryClient)
	webhookHandler := api.NewWebhookHandler(
		service,
		cfg.CaktoWebhookSecret,
		cfg.UsesDefaultWebhookSecret(),
		cfg.WebhookCallbackURL,
		cfg.IsDevelopment(),
	)
	userHandler := api.NewUserHandler(userRepo)
	router := api.NewRouter(webhookHandler, userHandler, cfg.CORSAllowedOrigins)

	// Start the HTTP server.
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s (env=%s)", cfg.ServerPort, cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	// Graceful shutdown logic.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
