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

	inventoryservice "github.com/avelar-dev/bookstore-orders/internal/inventory-service"
	"github.com/avelar-dev/bookstore-orders/internal/inventory-service/memory"
	"github.com/avelar-dev/bookstore-orders/internal/inventory-service/mysql"
	"github.com/avelar-dev/bookstore-orders/internal/pkg/telemetry"
)

// defaultStock seeds the in-memory store when INVENTORY_DSN is unset.
var defaultStock = map[int64]int{
	101: 25,
	102: 10,
	103: 0,
	104: 5,
}

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "inventory-service"))
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

	store, cleanup, err := openStore(ctx)
	if err != nil {
		slog.Error("failed to open inventory store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	router := inventoryservice.NewRouter(inventoryservice.NewHandler(store))

	addr := ":" + getEnv("PORT", "8082")
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		slog.Info("inventory service running", "addr", addr)
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

// openStore uses MySQL when INVENTORY_DSN is set, otherwise a seeded
// in-memory store for local development.
func openStore(ctx context.Context) (inventoryservice.Store, func(), error) {
	dsn := os.Getenv("INVENTORY_DSN")
	if dsn == "" {
		slog.Info("INVENTORY_DSN not set, using in-memory inventory store")
		return memory.NewStore(seedStock()), func() {}, nil
	}

	store, err := mysql.Open(dsn)
	if err != nil {
		return nil, nil, err
	}

	// MySQL keeps its own state; seed only when explicitly asked to.
	if os.Getenv("INVENTORY_SEED") != "" {
		for bookID, stock := range seedStock() {
			if err := store.SetStock(ctx, bookID, stock); err != nil {
				slog.Warn("failed to seed stock", "book_id", bookID, "error", err)
			}
		}
	}

	return store, func() { _ = store.Close() }, nil
}

// seedStock reads INVENTORY_SEED as a JSON object of book id to stock,
// falling back to the built-in table.
func seedStock() map[int64]int {
	raw := os.Getenv("INVENTORY_SEED")
	if raw == "" {
		return defaultStock
	}

	var decoded map[string]int
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		slog.Warn("invalid INVENTORY_SEED, using defaults", "error", err)
		return defaultStock
	}

	stock := make(map[int64]int, len(decoded))
	for key, qty := range decoded {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			slog.Warn("invalid book id in INVENTORY_SEED, using defaults", "key", key)
			return defaultStock
		}
		stock[id] = qty
	}
	return stock
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
