package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/adapters/catalog"
	"github.com/avelar-dev/bookstore-orders/internal/order-service/adapters/httpx"
	"github.com/avelar-dev/bookstore-orders/internal/order-service/adapters/inventory"
	"github.com/avelar-dev/bookstore-orders/internal/order-service/adapters/sqlite"
	"github.com/avelar-dev/bookstore-orders/internal/order-service/app"
	logsqlite "github.com/avelar-dev/bookstore-orders/internal/order-service/placementlog/sqlite"
	"github.com/avelar-dev/bookstore-orders/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "order-service"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	repo, err := sqlite.Open(getEnv("ORDERS_DB_PATH", "./data/orders.db"))
	if err != nil {
		slog.Error("failed to open orders database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	audit, err := logsqlite.Open(getEnv("PLACEMENT_LOG_PATH", "./data/placement.db"))
	if err != nil {
		slog.Error("failed to open placement log", "error", err)
		os.Exit(1)
	}
	defer audit.Close()

	catalogClient := catalog.NewClient(
		getEnv("CATALOG_ADDR", "http://localhost:8081"),
		getDuration("CATALOG_TIMEOUT", 3*time.Second),
	)
	inventoryClient := inventory.NewClient(
		getEnv("INVENTORY_ADDR", "http://localhost:8082"),
		getDuration("INVENTORY_TIMEOUT", 3*time.Second),
	)

	placement := app.NewPlacement(catalogClient, inventoryClient, repo, audit)
	lifecycle := app.NewLifecycle(repo)
	query := app.NewQuery(repo)

	handler := httpx.NewHandler(placement, lifecycle, query)
	router := httpx.NewRouter(handler)

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		slog.Info("order service running", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("invalid duration, using fallback", "key", key, "fallback", fallback)
	}
	return fallback
}
