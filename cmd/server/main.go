package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/tiltmaze/backend/internal/api"
	"github.com/tiltmaze/backend/internal/config"
	"github.com/tiltmaze/backend/internal/game"
	"github.com/tiltmaze/backend/internal/redis"
	"github.com/tiltmaze/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	tuning := game.DefaultTuning()
	if cfg.TuningFile != "" {
		t, err := game.LoadTuning(cfg.TuningFile)
		if err != nil {
			log.Fatalf("Failed to load tuning file %s: %v", cfg.TuningFile, err)
		}
		tuning = t
		log.Printf("[CONFIG] Tuning loaded from %s", cfg.TuningFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional: without it idle expiry runs in-process
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	switch {
	case errors.Is(err, redis.ErrNotConfigured):
		log.Println("[REDIS] REDIS_URL not set; running without Redis")
	case err != nil:
		log.Printf("[REDIS] Failed to connect, running without Redis: %v", err)
	default:
		defer rdb.Close()
		log.Println("[REDIS] Connected")
	}

	manager := game.NewManager(tuning, cfg.FrameRate)
	defer manager.Shutdown()

	hub := ws.NewHub(manager, rdb, cfg)
	go hub.Run(ctx)
	hub.StartEventSubscriber(ctx)

	game.StartIdleWorker(ctx, manager, rdb, cfg)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, manager, hub, rdb, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting tiltmaze server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
