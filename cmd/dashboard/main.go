package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"go-color-inspector/internal/container"
	"go-color-inspector/internal/logger"
)

func main() {
	// Optional .env file for local development
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded environment from .env file")
	}

	// Initialize dependency injection container
	c, err := container.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	cfg := c.Config()

	// Open the camera before starting acquisition
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	if err := c.Source().Open(openCtx); err != nil {
		cancelOpen()
		log.Fatalf("Failed to open frame source: %v", err)
	}
	cancelOpen()

	// Restore the previous session's history
	if cfg.LoadOnStart {
		loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
		if err := c.History().Load(loadCtx); err != nil {
			logger.WithError(err).Warn("Failed to load history snapshot")
		}
		cancelLoad()
	}

	// Start acquisition
	c.Worker().Start(context.Background())

	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      c.Handler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.ServerAddress(),
			"timeout": cfg.RequestTimeout,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop acquisition first; the worker flushes a final history save.
	c.Worker().Stop()

	if cfg.SaveOnExit {
		saveCtx, cancelSave := context.WithTimeout(context.Background(), 30*time.Second)
		if err := c.History().Save(saveCtx); err != nil {
			logger.WithError(err).Warn("Failed to save history on exit")
		}
		cancelSave()
	}

	if err := c.Source().Close(); err != nil {
		logger.WithError(err).Warn("Failed to close frame source")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
