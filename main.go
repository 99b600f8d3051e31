package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nijaru/vi-transcript/config"
	"github.com/nijaru/vi-transcript/handlers/api"
	"github.com/nijaru/vi-transcript/indexer"
	"github.com/nijaru/vi-transcript/logger"
	"github.com/nijaru/vi-transcript/services/summary"
	"github.com/nijaru/vi-transcript/services/video"
	"github.com/nijaru/vi-transcript/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logrus.SetOutput(appLogger.Out)
	logrus.SetFormatter(appLogger.Formatter)
	logrus.SetLevel(appLogger.GetLevel())

	videoOpts := []video.Option{video.WithLogger(appLogger)}
	if cfg.Archive.Enabled() {
		archive, err := storage.NewSpacesClient(context.Background(), cfg.Archive)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize transcript archive")
		}
		videoOpts = append(videoOpts, video.WithArchiver(archive))
		appLogger.WithField("bucket", cfg.Archive.Bucket).Info("Transcript archive enabled")
	}

	videoService := video.NewService(
		indexer.New(cfg.Indexer, indexer.WithLogger(appLogger)),
		videoOpts...,
	)

	summaryService := summary.NewService(
		summary.NewClient(cfg.OpenAI),
		summary.Config{
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
		},
		appLogger,
	)

	server := api.NewServer(cfg,
		api.WithServices(videoService, summaryService),
		api.WithLogger(appLogger),
	)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-shutdownChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			appLogger.WithError(err).Error("Server shutdown error")
		}
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		appLogger.WithError(err).Fatal("Server error")
	}

	<-done
	appLogger.Info("Server stopped")
}
