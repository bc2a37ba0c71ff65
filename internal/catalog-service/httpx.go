package catalogservice

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avelar-dev/bookstore-orders/internal/pkg/httpmeta"
)

type pricesRequest struct {
	BookIDs []int64 `json:"bookIds"`
}

type pricesResponse struct {
	Prices map[string]float64 `json:"prices"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Handler exposes the bulk price endpoint consumed by the order
// service's quote client.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Prices handles POST /catalog/prices.
func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: err.Error()})
		return
	}
	if len(req.BookIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: "bookIds must not be empty"})
		return
	}

	prices := h.service.Prices(r.Context(), req.BookIDs)

	out := make(map[string]float64, len(prices))
	for id, price := range prices {
		out[strconv.FormatInt(id, 10)] = price
	}
	writeJSON(w, http.StatusOK, pricesResponse{Prices: out})
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpmeta.Attach)
	r.Use(middleware.Recoverer)

	r.Post("/catalog/prices", handler.Prices)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return otelhttp.NewHandler(r, "catalog-service")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
