package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	catalogservice "github.com/avelar-dev/bookstore-orders/internal/catalog-service"
	"github.com/avelar-dev/bookstore-orders/internal/pkg/cache"
	"github.com/avelar-dev/bookstore-orders/internal/pkg/telemetry"
)

// defaultPrices seeds the catalog when CATALOG_SEED is not provided.
var defaultPrices = map[int64]float64{
	101: 399.0,
	102: 249.5,
	103: 120.0,
	104: 89.9,
}

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "catalog-service"))
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

	var priceCache cache.Cache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		priceCache = cache.NewRedisCache(redisAddr, "catalog")
	}

	service := catalogservice.New(seedPrices(), priceCache)
	router := catalogservice.NewRouter(catalogservice.NewHandler(service))

	addr := ":" + getEnv("PORT", "8081")
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		slog.Info("catalog service running", "addr", addr)
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

// seedPrices reads CATALOG_SEED as a JSON object of book id to price,
// falling back to the built-in table.
func seedPrices() map[int64]float64 {
	raw := os.Getenv("CATALOG_SEED")
	if raw == "" {
		return defaultPrices
	}

	var decoded map[string]float64
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		slog.Warn("invalid CATALOG_SEED, using defaults", "error", err)
		return defaultPrices
	}

	prices := make(map[int64]float64, len(decoded))
	for key, price := range decoded {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			slog.Warn("invalid book id in CATALOG_SEED, using defaults", "key", key)
			return defaultPrices
		}
		prices[id] = price
	}
	return prices
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
