package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"smartdash/config"
	"smartdash/db"
	qhttp "smartdash/http"
	"smartdash/housing"
	"smartdash/logging"
	"smartdash/monitoring"
	"smartdash/tasks"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default $SMARTDASH_CONFIG or ./config.yaml)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize database
	history, err := db.Open(ctx, db.Options{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer history.Close()
	logger.Info("database initialized", zap.String("driver", history.Driver()))

	// 3. Domain services
	registry, err := housing.NewRegistry(cfg.Housing.CacheSize)
	if err != nil {
		logger.Fatal("failed to create dataset registry", zap.Error(err))
	}

	hub := monitoring.NewHub(logger.Named("ws"))
	go hub.Run(ctx, cfg.Tasks.HeartbeatInterval)

	store, err := tasks.NewStore(cfg.Tasks.File)
	if err != nil {
		logger.Fatal("failed to open task file", zap.String("path", cfg.Tasks.File), zap.Error(err))
	}
	taskService := tasks.NewService(store,
		tasks.WithPublisher(hub),
		tasks.WithLogger(logger.Named("tasks")),
	)
	if cfg.Tasks.Watch {
		go func() {
			if err := taskService.Watch(ctx); err != nil {
				logger.Error("task file watcher stopped", zap.Error(err))
			}
		}()
	}

	// 4. Start HTTP server
	qhttp.SetLogger(logger.Named("http"))
	qhttp.SetDatasetRegistry(registry)
	qhttp.SetTrainingDefaults(cfg.Housing.TestRatio, cfg.Housing.Seed)
	qhttp.SetTaskService(taskService)
	qhttp.SetHistory(history)
	qhttp.SetRealtimeHub(hub)
	qhttp.SetAuthSecret(cfg.Auth.JWTSecret)
	if cfg.AuthEnabled() {
		logger.Info("bearer token required for task changes")
	}

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	})
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// 5. Handle graceful shutdown
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		stop()
	}

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	<-hub.Done()
	logger.Info("exiting")
}
