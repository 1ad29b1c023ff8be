package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equipment-maintenance-backend/config"
	"equipment-maintenance-backend/internal/api"
	"equipment-maintenance-backend/internal/db"
	"equipment-maintenance-backend/internal/lifecycle"
	"equipment-maintenance-backend/internal/notification"
	"equipment-maintenance-backend/internal/predict"
	"equipment-maintenance-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	logger := log.New(os.Stdout, "equipment-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	// Frozen model artifacts load once; they are immutable for the process
	// lifetime and swapped only by redeployment.
	artifacts, err := predict.LoadArtifacts(cfg.Models.Dir)
	if err != nil {
		logger.Fatalf("failed to load model artifacts from %s: %v", cfg.Models.Dir, err)
	}
	logger.Printf("model artifacts loaded from %s", cfg.Models.Dir)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, &webpushOptions)
	workerPool.Start(ctx)

	engine := predict.NewEngine(artifacts)
	svc := lifecycle.NewService(appStore, engine, workerPool)

	router := api.NewRouter(appStore, svc, cfg, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
