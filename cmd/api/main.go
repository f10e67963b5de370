package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/skeld-engine/internal/config"
	"github.com/jwebster45206/skeld-engine/internal/handlers"
	"github.com/jwebster45206/skeld-engine/internal/logger"
	"github.com/jwebster45206/skeld-engine/internal/middleware"
	"github.com/jwebster45206/skeld-engine/internal/orchestrator"
	"github.com/jwebster45206/skeld-engine/internal/services"
	"github.com/jwebster45206/skeld-engine/pkg/game"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Skeld Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"generator_provider", cfg.GeneratorProvider,
		"model_name", cfg.ModelName)

	shipMap := game.DefaultShipMap()
	if cfg.ShipMapPath != "" {
		var err error
		shipMap, err = game.LoadShipMap(cfg.ShipMapPath)
		if err != nil {
			log.Error("Failed to load ship map", "path", cfg.ShipMapPath, "error", err)
			os.Exit(1)
		}
		log.Info("Ship map loaded", "path", cfg.ShipMapPath, "rooms", len(shipMap.RoomIDs()))
	}

	var gen services.ActionGenerator
	switch strings.ToLower(cfg.GeneratorProvider) {
	case "mock":
		gen = services.NewMockGenerator()
		log.Info("Using mock action generator")
	default:
		log.Error("Invalid generator provider specified", "provider", cfg.GeneratorProvider, "supported", []string{"mock"})
		os.Exit(1)
	}

	var store services.Store = services.NewRedisStore(cfg.RedisURL, log)
	storeCtx, storeCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storeCancel()

	if err := store.Ping(storeCtx); err != nil {
		log.Error("Failed to connect to store", "error", err)
		os.Exit(1)
	}
	log.Info("Store connection established successfully")

	orch := orchestrator.New(shipMap, gen, store, cfg.Seed, cfg.SpeechRetryBudget, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, gen, log)
	mux.Handle("/health", healthHandler)

	gamesHandler := handlers.NewGamesHandler(orch, store, log)
	mux.Handle("/v1/games", gamesHandler)
	mux.Handle("/v1/games/", gamesHandler)

	handler := middleware.RequestID(mux)
	handler = middleware.RateLimit(cfg.RateLimitRPS, int(cfg.RateLimitRPS)*2)(handler)
	handler = middleware.Logging(log)(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			stdlog.Fatal(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing store connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
