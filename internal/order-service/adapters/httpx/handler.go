package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/app"
	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
)

// Handler exposes the order REST surface and maps every domain error
// kind to its HTTP status. It is thin plumbing: all decisions live in
// the app services.
type Handler struct {
	placement *app.Placement
	lifecycle *app.Lifecycle
	query     *app.Query
}

func NewHandler(placement *app.Placement, lifecycle *app.Lifecycle, query *app.Query) *Handler {
	return &Handler{
		placement: placement,
		lifecycle: lifecycle,
		query:     query,
	}
}

// PlaceOrder handles POST /order/place.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	lineItems, err := parseLineItems(req.BookOrder)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	order, err := h.placement.PlaceOrder(r.Context(), req.UserID, lineItems)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

// GetAll handles GET /order/getAll.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.query.GetAll(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrders(orders))
}

// GetByID handles GET /order/getById/{orderId}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.query.GetByID(r.Context(), orderID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// GetByStatus handles GET /order/status/{status}.
func (h *Handler) GetByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	orders, err := h.query.GetByStatus(r.Context(), status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrders(orders))
}

// UpdateStatus handles PATCH /order/update/{orderId}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	status, err := domain.ParseStatus(req.OrderStatus)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	order, err := h.lifecycle.ChangeStatus(r.Context(), orderID, status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// Cancel handles DELETE /order/cancel/{orderId}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.Cancel(r.Context(), orderID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /order/delete/{orderId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.SoftDelete(r.Context(), orderID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "orderId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_order_id", "orderId must be a positive integer")
		return 0, false
	}
	return id, true
}

// writeDomainError maps the error taxonomy onto the HTTP surface:
// 400 validation, 404 not found, 409 terminal-state conflicts and
// shortages, 422 invalid transitions, 502 failed placement after a
// successful reduction, 503 collaborator unavailability.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr   *domain.ValidationError
		priceErr        *domain.PriceNotFoundError
		stockErr        *domain.InsufficientStockError
		transitionErr   *domain.InvalidTransitionError
		cancellationErr *domain.CancellationError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Msg)
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.As(err, &priceErr):
		writeError(w, http.StatusNotFound, "price_not_found", priceErr.Error())
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
	case errors.As(err, &cancellationErr):
		writeError(w, http.StatusConflict, "cancellation_not_allowed", cancellationErr.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusUnprocessableEntity, "invalid_status_transition", transitionErr.Error())
	case errors.Is(err, domain.ErrCatalogUnavailable):
		writeError(w, http.StatusServiceUnavailable, "catalog_unavailable", err.Error())
	case errors.Is(err, domain.ErrInventoryUnavailable):
		writeError(w, http.StatusServiceUnavailable, "inventory_unavailable", err.Error())
	case errors.Is(err, domain.ErrOrderNotPlaced):
		writeError(w, http.StatusBadGateway, "order_not_placed", err.Error())
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
