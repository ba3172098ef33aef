// tavle/main.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tavle/config"
	"tavle/database"
	"tavle/handlers"
	"tavle/models"
	"tavle/utils"
)

type Application struct {
	db          *database.DatabaseService
	rateLimiter *models.RateLimiter
	logger      *slog.Logger
	storage     models.StorageService
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService    { return a.db }
func (a *Application) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *Application) Logger() *slog.Logger             { return a.logger }
func (a *Application) Storage() models.StorageService   { return a.storage }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- External Configuration ---
	port := utils.GetEnv("TAVLE_PORT", "8080")
	dbPath := utils.GetEnv("TAVLE_DB_PATH", "./tavle.db?_journal_mode=WAL&_foreign_keys=on")
	imagesDir := utils.GetEnv("TAVLE_IMAGES_DIR", "./images")

	sessionSecret := utils.GetEnv("TAVLE_SESSION_SECRET", "")
	if sessionSecret == "" {
		// Sessions do not survive a restart without a configured secret.
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			logger.Error("Failed to generate session secret", "error", err)
			os.Exit(1)
		}
		sessionSecret = hex.EncodeToString(secretBytes)
		logger.Warn("TAVLE_SESSION_SECRET not set, generated an ephemeral secret")
	}
	utils.SessionSecret = sessionSecret

	rateLimitEvery, err := time.ParseDuration(utils.GetEnv("TAVLE_RATE_EVERY", config.DefaultRateLimitEvery))
	if err != nil {
		logger.Warn("Invalid TAVLE_RATE_EVERY duration, using default", "value", utils.GetEnv("TAVLE_RATE_EVERY", ""), "default", config.DefaultRateLimitEvery)
		rateLimitEvery, _ = time.ParseDuration(config.DefaultRateLimitEvery)
	}
	rateLimitBurst, err := strconv.Atoi(utils.GetEnv("TAVLE_RATE_BURST", strconv.Itoa(config.DefaultRateLimitBurst)))
	if err != nil {
		logger.Warn("Invalid TAVLE_RATE_BURST integer, using default", "value", utils.GetEnv("TAVLE_RATE_BURST", ""), "default", config.DefaultRateLimitBurst)
		rateLimitBurst = config.DefaultRateLimitBurst
	}
	rateLimitPrune, err := time.ParseDuration(utils.GetEnv("TAVLE_RATE_PRUNE", config.DefaultRateLimitPrune))
	if err != nil {
		logger.Warn("Invalid TAVLE_RATE_PRUNE duration, using default", "value", utils.GetEnv("TAVLE_RATE_PRUNE", ""), "default", config.DefaultRateLimitPrune)
		rateLimitPrune, _ = time.ParseDuration(config.DefaultRateLimitPrune)
	}
	rateLimitExpire, err := time.ParseDuration(utils.GetEnv("TAVLE_RATE_EXPIRE", config.DefaultRateLimitExpire))
	if err != nil {
		logger.Warn("Invalid TAVLE_RATE_EXPIRE duration, using default", "value", utils.GetEnv("TAVLE_RATE_EXPIRE", ""), "default", config.DefaultRateLimitExpire)
		rateLimitExpire, _ = time.ParseDuration(config.DefaultRateLimitExpire)
	}

	dbService, err := database.InitDB(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.DB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	// --- Storage Service Init ---
	var storageService models.StorageService
	if utils.GetEnv("TAVLE_S3_ENABLED", "false") == "true" {
		endpoint := utils.GetEnv("TAVLE_S3_ENDPOINT", "")
		accessKey := utils.GetEnv("TAVLE_S3_ACCESS_KEY", "")
		secretKey := utils.GetEnv("TAVLE_S3_SECRET_KEY", "")
		bucket := utils.GetEnv("TAVLE_S3_BUCKET", "")
		region := utils.GetEnv("TAVLE_S3_REGION", "us-east-1")
		useSSL := utils.GetEnv("TAVLE_S3_USE_SSL", "true") == "true"

		storageService, err = utils.NewS3Storage(endpoint, accessKey, secretKey, bucket, region, useSSL)
		if err != nil {
			logger.Error("Failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("S3 storage initialized", "endpoint", endpoint, "bucket", bucket)
	} else {
		if err := os.MkdirAll(imagesDir, 0755); err != nil {
			logger.Error("FATAL: Could not create images directory", "path", imagesDir, "error", err)
			os.Exit(1)
		}
		storageService = &utils.LocalStorage{ImagesDir: imagesDir}
		logger.Info("Local storage initialized", "dir", imagesDir)
	}

	app := &Application{
		db:          dbService,
		rateLimiter: models.NewRateLimiter(rateLimitEvery, rateLimitBurst, rateLimitPrune, rateLimitExpire),
		logger:      logger,
		storage:     storageService,
	}

	mux := handlers.SetupRouter(app)

	// --- Graceful Shutdown ---
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("tavle server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+port,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
