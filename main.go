// This is the main entry point of the academia gateway.
// It loads configuration, builds the forwarding proxy and the backend health
// monitor, serves them over HTTP and shuts everything down gracefully.
//
// @title Academia API gateway
// @version 1.0
// @description Forwarding proxy in front of the academy backend.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN'; the token is passed to the backend untouched
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/user/academia-go/background"
	"github.com/user/academia-go/config"
	"github.com/user/academia-go/proxy"
	"github.com/user/academia-go/server"
)

func main() {
	// Load .env file. In production, variables are usually set directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("error loading .env file", slog.Any("error", err))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	backendClient := &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}

	proxyHandler := proxy.NewHandler(proxy.Options{
		Backend: cfg.Backend.URL,
		Client:  backendClient,
		Logger:  logger,
	})

	health := background.NewHealthMonitor(background.HealthMonitorOptions{
		Backend:  cfg.Backend.BackendBase(),
		Interval: cfg.Backend.HealthCheckInterval,
		Logger:   logger,
		Events:   background.NewBroadcaster(logger),
	})
	health.Start()

	router := server.NewRouter(server.Deps{
		Proxy:          proxyHandler,
		Health:         health,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("backend", proxyHandler.Backend()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.Info("server shutting down", slog.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server failed", slog.Any("error", err))
		exitCode = 1
	}

	health.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
		exitCode = 1
	}
	cancel()
	backendClient.CloseIdleConnections()

	logger.Info("server stopped")
	os.Exit(exitCode)
}
