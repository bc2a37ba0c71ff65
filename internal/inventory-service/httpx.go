package inventoryservice

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avelar-dev/bookstore-orders/internal/pkg/httpmeta"
)

type bulkRequest struct {
	Items map[string]int `json:"items"`
}

type checkResponse struct {
	Availability map[string]bool `json:"availability"`
}

type errorResponse struct {
	Error       string  `json:"error"`
	Message     string  `json:"message,omitempty"`
	Unavailable []int64 `json:"unavailable,omitempty"`
}

// Handler exposes the bulk availability check and the bulk reduction.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Check handles POST /inventory/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	quantities, ok := h.decodeItems(w, r)
	if !ok {
		return
	}

	availability, err := h.store.CheckAvailability(r.Context(), quantities)
	if err != nil {
		slog.ErrorContext(r.Context(), "availability check failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "store_error", Message: "availability check failed"})
		return
	}

	out := make(map[string]bool, len(availability))
	for bookID, available := range availability {
		out[strconv.FormatInt(bookID, 10)] = available
	}
	writeJSON(w, http.StatusOK, checkResponse{Availability: out})
}

// Reduce handles POST /inventory/reduce. A shortage answers 409 with
// the blocking book ids; nothing was decremented in that case.
func (h *Handler) Reduce(w http.ResponseWriter, r *http.Request) {
	quantities, ok := h.decodeItems(w, r)
	if !ok {
		return
	}

	ref := r.Header.Get(httpmeta.HeaderReservationRef)

	err := h.store.Reduce(r.Context(), ref, quantities)
	var shortErr *ShortStockError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"reduced": true})
	case errors.As(err, &shortErr):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:       "insufficient_stock",
			Message:     shortErr.Error(),
			Unavailable: shortErr.BookIDs,
		})
	default:
		slog.ErrorContext(r.Context(), "stock reduction failed", "reservation_ref", ref, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "store_error", Message: "stock reduction failed"})
	}
}

func (h *Handler) decodeItems(w http.ResponseWriter, r *http.Request) (map[int64]int, bool) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: err.Error()})
		return nil, false
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: "items must not be empty"})
		return nil, false
	}

	quantities := make(map[int64]int, len(req.Items))
	for key, qty := range req.Items {
		bookID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || bookID <= 0 || qty <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_item", Message: "book ids and quantities must be positive"})
			return nil, false
		}
		quantities[bookID] = qty
	}
	return quantities, true
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpmeta.Attach)
	r.Use(middleware.Recoverer)

	r.Post("/inventory/check", handler.Check)
	r.Post("/inventory/reduce", handler.Reduce)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return otelhttp.NewHandler(r, "inventory-service")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
