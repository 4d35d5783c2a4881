package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/screenpilot/screenpilot/config"
	"github.com/screenpilot/screenpilot/internal/hub"
	v1 "github.com/screenpilot/screenpilot/internal/transport/http/v1"
	"github.com/screenpilot/screenpilot/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadViewer()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting viewer...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Store: %s (%s)", cfg.StorePath, cfg.StoreBackend)

	// Initialize store. The viewer only reads; the agent process owns
	// writes.
	st, err := store.OpenReader(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Initialize live feed
	h := hub.NewHub()
	go h.Run()

	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()
	poller := v1.NewPoller(st, h, cfg.ViewerPoll)
	go poller.Run(pollCtx)

	// Create Echo server
	server := echo.New()
	server.HideBanner = true

	// Middleware
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())

	// Register routes
	handler := v1.NewHandler(st, h)
	handler.RegisterRoutes(server)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Viewer started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down viewer...")
	cancelPoll()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Viewer stopped")
}
