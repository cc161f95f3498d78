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

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	cfg "github.com/sand/nft-marketplace/client/config"
	"github.com/sand/nft-marketplace/client/internal/app"
	"github.com/sand/nft-marketplace/client/internal/handlers"
	"github.com/sand/nft-marketplace/client/internal/usecases"
)

// Server timeout constants. Listing requests wait for the transaction to be
// mined, so writes get more room than reads.
const (
	readTimeoutSeconds     = 15
	writeTimeoutSeconds    = 120
	idleTimeoutSeconds     = 60
	shutdownTimeoutSeconds = 5
)

func main() {
	time.Local = time.UTC

	config, err := cfg.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := app.NewLogger(config, os.Stdout)
	logger.Warn("Starting application with configuration",
		"debug", config.App.Debug,
		"rpc_url", config.RPCURL,
		"chain_id", config.ChainID,
		"server_port", config.HTTP.Port,
		"journal", config.DB.DatabaseURL != "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	websocketManager := handlers.NewWebSocketManager(logger)

	client, err := app.New(ctx, logger, config, usecases.WithUI(websocketManager, websocketManager))
	if err != nil {
		logger.Error("Failed to create marketplace client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	client.Marketplace.Init(ctx)
	client.StartWorkers(ctx)

	httpHandler := handlers.NewHTTPHandler(logger, client.Marketplace, websocketManager)
	wsHandler := handlers.NewWebSocketHandler(logger, websocketManager)

	router := mux.NewRouter()

	// Register WebSocket routes before HTTP routes
	wsHandler.RegisterRoutes(router)
	httpHandler.RegisterRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + config.HTTP.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  readTimeoutSeconds * time.Second,
		WriteTimeout: writeTimeoutSeconds * time.Second,
		IdleTimeout:  idleTimeoutSeconds * time.Second,
	}

	go func() {
		logger.Info("Starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeoutSeconds*time.Second)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return
	}

	logger.Info("Waiting for pending mint-and-list runs")
	httpHandler.Wait()

	client.Marketplace.Session().Teardown()
	logger.Info("Server exited properly")
}
