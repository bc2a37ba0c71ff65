package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestQuote_Success(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/catalog/prices", r.URL.Path)

		var req struct {
			BookIDs []int64 `json:"bookIds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.ElementsMatch(t, []int64{101, 102}, req.BookIDs)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"prices": map[string]float64{"101": 399.0, "102": 249.5},
		})
	})

	client := NewClient(srv.URL, time.Second)

	prices, err := client.Quote(context.Background(), []int64{101, 102})
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{101: 399.0, 102: 249.5}, prices)
}

func TestQuote_MissingPriceIsPriceNotFound(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"prices": map[string]float64{"101": 399.0},
		})
	})

	client := NewClient(srv.URL, time.Second)

	_, err := client.Quote(context.Background(), []int64{101, 102})

	var priceErr *domain.PriceNotFoundError
	require.ErrorAs(t, err, &priceErr)
	assert.Equal(t, []int64{102}, priceErr.BookIDs)
}

func TestQuote_ServerErrorIsUnavailable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "catalog db down"})
	})

	client := NewClient(srv.URL, time.Second)

	_, err := client.Quote(context.Background(), []int64{101})
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "catalog db down")
}

func TestQuote_UnknownErrorBodyDegradesToGenericMessage(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>upstream timeout</html>`))
	})

	client := NewClient(srv.URL, time.Second)

	_, err := client.Quote(context.Background(), []int64{101})
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "service communication failure")
}

func TestQuote_TransportFaultIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, time.Second)

	_, err := client.Quote(context.Background(), []int64{101})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestQuote_TimeoutIsUnavailable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	client := NewClient(srv.URL, 50*time.Millisecond)

	_, err := client.Quote(context.Background(), []int64{101})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestQuote_NotFoundStatus(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client := NewClient(srv.URL, time.Second)

	_, err := client.Quote(context.Background(), []int64{101, 102})

	var priceErr *domain.PriceNotFoundError
	require.ErrorAs(t, err, &priceErr)
	assert.ElementsMatch(t, []int64{101, 102}, priceErr.BookIDs)
}
