package inventoryservice_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryservice "github.com/avelar-dev/bookstore-orders/internal/inventory-service"
	"github.com/avelar-dev/bookstore-orders/internal/inventory-service/memory"
)

func newServer(t *testing.T, seed map[int64]int) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore(seed)
	srv := httptest.NewServer(inventoryservice.NewRouter(inventoryservice.NewHandler(store)))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCheckEndpoint(t *testing.T) {
	srv, _ := newServer(t, map[int64]int{101: 5, 102: 0})

	resp := postJSON(t, srv.URL+"/inventory/check", map[string]any{
		"items": map[string]int{"101": 2, "102": 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		Availability map[string]bool `json:"availability"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, map[string]bool{"101": true, "102": false}, decoded.Availability)
}

func TestReduceEndpoint_Conflict(t *testing.T) {
	srv, store := newServer(t, map[int64]int{101: 5, 102: 0})

	resp := postJSON(t, srv.URL+"/inventory/reduce", map[string]any{
		"items": map[string]int{"101": 2, "102": 1},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var decoded struct {
		Error       string  `json:"error"`
		Unavailable []int64 `json:"unavailable"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "insufficient_stock", decoded.Error)
	assert.Equal(t, []int64{102}, decoded.Unavailable)

	// Nothing was decremented.
	assert.Equal(t, 5, store.Stock(101))
}

func TestReduceEndpoint_Success(t *testing.T) {
	srv, store := newServer(t, map[int64]int{101: 5})

	resp := postJSON(t, srv.URL+"/inventory/reduce", map[string]any{
		"items": map[string]int{"101": 2},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, store.Stock(101))
}

func TestReduceEndpoint_RejectsInvalidItems(t *testing.T) {
	srv, _ := newServer(t, map[int64]int{101: 5})

	for _, items := range []map[string]int{
		{},
		{"101": 0},
		{"101": -1},
		{"abc": 1},
		{"-5": 1},
	} {
		resp := postJSON(t, srv.URL+"/inventory/reduce", map[string]any{"items": items})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "items %v", items)
	}
}
