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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dashboard-sync-service/internal/api"
	"dashboard-sync-service/internal/assistant"
	"dashboard-sync-service/internal/auth"
	"dashboard-sync-service/internal/config"
	"dashboard-sync-service/internal/database"
	"dashboard-sync-service/internal/logger"
	"dashboard-sync-service/internal/rbac"
	"dashboard-sync-service/internal/store"
	"dashboard-sync-service/internal/sync"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// Load Config
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Init Logger
	if err := logger.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Log.Info("Starting dashboard sync service", zap.String("driver", cfg.Database.Driver))

	// Init Database
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to open database", zap.Error(err))
	}
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}
	st := store.NewSQLStore(db)
	defer st.Close()

	enforcer, err := rbac.NewEnforcer()
	if err != nil {
		logger.Log.Fatal("Failed to init role enforcer", zap.Error(err))
	}

	// Init Sync Manager and bring every table up to date
	syncManager := sync.NewManager(cfg, st)
	syncManager.SyncAll(ctx)

	scheduler := sync.NewScheduler(cfg.Scheduler, syncManager)
	if err := scheduler.Start(); err != nil {
		logger.Log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	if cfg.Watch.Enabled {
		watcher, err := sync.NewFileWatcher(syncManager.Sources())
		if err != nil {
			logger.Log.Fatal("Failed to init file watcher", zap.Error(err))
		}
		worker := sync.NewWorker(syncManager, watcher.Events(), cfg.Watch.GetDebounce())
		watcher.Start()
		worker.Start()
		defer func() {
			watcher.Stop()
			worker.Stop()
		}()
	}

	ai := assistant.New(cfg.Assistant)
	if !ai.Configured() {
		logger.Log.Warn("AI assistant has no API key; assistant requests will be refused")
	}

	// Init API
	handler := api.NewHandler(api.Deps{
		Config:    cfg,
		Store:     st,
		Manager:   syncManager,
		Auth:      auth.NewService(st, cfg.Auth.BcryptCost),
		Sessions:  auth.NewSessionManager(cfg.Auth.GetSessionTTL()),
		Enforcer:  enforcer,
		Assistant: ai,
	})
	router := handler.Routes()

	// Start Server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server shutdown failed", zap.Error(err))
	}
}
