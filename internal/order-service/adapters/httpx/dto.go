package httpx

import (
	"strconv"
	"time"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
)

type PlaceOrderRequest struct {
	UserID int64 `json:"userId"`
	// JSON object keys are strings; parsed to int64 book ids.
	BookOrder map[string]int `json:"bookOrder"`
}

type UpdateStatusRequest struct {
	OrderStatus string `json:"orderStatus"`
}

type OrderResponse struct {
	OrderID       int64          `json:"orderId"`
	UserID        int64          `json:"userId"`
	BookOrder     map[string]int `json:"bookOrder"`
	TotalAmount   float64        `json:"totalAmount"`
	OrderStatus   string         `json:"orderStatus"`
	OrderDateTime string         `json:"orderDateTime"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapOrderToResponse(order *domain.Order) OrderResponse {
	items := make(map[string]int, len(order.LineItems))
	for bookID, qty := range order.LineItems {
		items[strconv.FormatInt(bookID, 10)] = qty
	}

	return OrderResponse{
		OrderID:       order.ID,
		UserID:        order.UserID,
		BookOrder:     items,
		TotalAmount:   order.TotalAmount,
		OrderStatus:   string(order.Status),
		OrderDateTime: order.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapOrders(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = mapOrderToResponse(&orders[i])
	}
	return out
}

// parseLineItems converts wire keys to book ids. Unparseable keys are
// a validation failure, same as non-positive ids.
func parseLineItems(raw map[string]int) (map[int64]int, error) {
	items := make(map[int64]int, len(raw))
	for key, qty := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, &domain.ValidationError{Msg: "invalid book id " + strconv.Quote(key)}
		}
		items[id] = qty
	}
	return items, nil
}
