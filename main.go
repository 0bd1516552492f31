package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyderes/posts-client/internal/archive"
	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/display"
	"github.com/cyderes/posts-client/internal/poststore"
	"github.com/cyderes/posts-client/internal/remote"
	"github.com/cyderes/posts-client/internal/server"
	"github.com/cyderes/posts-client/internal/storage"
	"github.com/cyderes/posts-client/internal/telemetry"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = version
	}
	shutdownTracing, err := telemetry.Init(context.Background(), cfg.Telemetry)
	if err != nil {
		log.Fatal("Failed to initialize tracing:", err)
	}

	// Initialize archive storage
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer store.Close()

	posts := poststore.New(remote.NewClient(cfg.API))
	controller := display.NewController(posts, cfg.Display.PageSize, display.NewNotifier(cfg.Display.NotificationTTL, nil))
	archiver := archive.NewService(posts, store)

	httpServer := server.NewServer(cfg.Server, controller, archiver)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting HTTP server on port %d (posts from %s)", cfg.Server.Port, cfg.API.Endpoint)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
	log.Println("Shutdown complete")
}
