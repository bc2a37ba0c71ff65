package inventory

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
	"github.com/avelar-dev/bookstore-orders/internal/pkg/httpmeta"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckAvailability_Success(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory/check", r.URL.Path)

		var req struct {
			Items map[string]int `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]int{"101": 2, "102": 1}, req.Items)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"availability": map[string]bool{"101": true, "102": false},
		})
	})

	client := NewClient(srv.URL, time.Second)

	availability, err := client.CheckAvailability(context.Background(), map[int64]int{101: 2, 102: 1})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{101: true, 102: false}, availability)
}

func TestReduce_SendsReservationRef(t *testing.T) {
	var seenRef string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory/reduce", r.URL.Path)
		seenRef = r.Header.Get(httpmeta.HeaderReservationRef)
		_ = json.NewEncoder(w).Encode(map[string]bool{"reduced": true})
	})

	client := NewClient(srv.URL, time.Second)

	err := client.Reduce(context.Background(), "ref-123", map[int64]int{101: 2})
	require.NoError(t, err)
	assert.Equal(t, "ref-123", seenRef)
}

func TestReduce_ConflictCarriesShortBooks(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":       "insufficient_stock",
			"message":     "insufficient stock for books 101, 103",
			"unavailable": []int64{101, 103},
		})
	})

	client := NewClient(srv.URL, time.Second)

	err := client.Reduce(context.Background(), "ref-123", map[int64]int{101: 2, 102: 1, 103: 1})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.ElementsMatch(t, []int64{101, 103}, stockErr.BookIDs)
}

func TestReduce_ServerErrorIsUnavailable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "store down"})
	})

	client := NewClient(srv.URL, time.Second)

	err := client.Reduce(context.Background(), "ref-123", map[int64]int{101: 1})
	require.ErrorIs(t, err, domain.ErrInventoryUnavailable)
	assert.Contains(t, err.Error(), "store down")
}

func TestCheckAvailability_TransportFaultIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second)

	_, err := client.CheckAvailability(context.Background(), map[int64]int{101: 1})
	assert.ErrorIs(t, err, domain.ErrInventoryUnavailable)
}

func TestCheckAvailability_TimeoutIsUnavailable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	client := NewClient(srv.URL, 50*time.Millisecond)

	_, err := client.CheckAvailability(context.Background(), map[int64]int{101: 1})
	assert.ErrorIs(t, err, domain.ErrInventoryUnavailable)
}
