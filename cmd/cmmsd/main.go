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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cmms-backend/config"
	"cmms-backend/internal/api"
	"cmms-backend/internal/backup"
	"cmms-backend/internal/db"
	"cmms-backend/internal/notification"
	"cmms-backend/internal/scheduler"
	"cmms-backend/internal/service"
	"cmms-backend/internal/store"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		svc     *service.Service
		digest  api.DigestRunner
		closeDB = func() {}
	)

	storeAvailable := true
	if err := cfg.Validate(); err != nil {
		if !errors.Is(err, config.ErrMissingSecrets) || !cfg.Database.AllowDegraded {
			logger.Fatal("invalid database configuration", zap.Error(err))
		}
		storeAvailable = false
		logger.Warn("database secrets missing, serving in degraded mode", zap.Error(err))
	}

	var webpushOptions *webpush.Options
	if cfg.Push.PushEnabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Info("VAPID keys not configured, push notifications disabled")
	}

	if storeAvailable {
		gormDB, err := db.Init(&cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		closeDB = func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				sqlDB.Close()
			}
		}

		appStore := store.NewGormStore(gormDB)
		svc = service.New(appStore, cfg.Server.Location, logger)

		var mailer notification.Mailer
		mailCfg, err := notification.LoadMailConfig(cfg.Notification.MailConfigPath)
		switch {
		case errors.Is(err, notification.ErrMailDisabled):
			logger.Info("mail config not found, email digest disabled", zap.String("path", cfg.Notification.MailConfigPath))
		case err != nil:
			logger.Error("failed to load mail config, email digest disabled", zap.Error(err))
		default:
			mailer = notification.NewSMTPMailer(*mailCfg)
		}

		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, mailer, logger)
		pool.Start(ctx)

		sched := scheduler.New(cfg.Notification, svc, pool, logger)
		go sched.Run(ctx)
		digest = sched
	}

	uploader, err := backup.NewUploader(cfg.Backup.Storage)
	if err != nil {
		logger.Error("failed to create backup uploader, uploads disabled", zap.Error(err))
		uploader = nil
	}
	backups := backup.NewManager(cfg.Backup.DataDir, cfg.Backup.Storage.Bucket, uploader, logger)
	if err := backups.EnsureDir(); err != nil {
		logger.Error("backup directory unavailable", zap.String("dir", cfg.Backup.DataDir), zap.Error(err))
	}

	handler := api.NewHandler(svc, backups, digest, webpushOptions, logger)
	router := api.NewRouter(handler, cfg.Server, storeAvailable, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}
	closeDB()

	logger.Info("server gracefully stopped")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}
