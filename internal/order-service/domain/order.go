package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var statuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusShipped:   true,
	StatusDelivered: true,
	StatusCancelled: true,
}

// ParseStatus converts a wire value into a Status. Matching is
// case-insensitive so "/order/status/shipped" works.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(s))
	if !statuses[st] {
		return "", &ValidationError{Msg: fmt.Sprintf("unknown order status %q", s)}
	}
	return st, nil
}

// Terminal reports whether no further status change is permitted.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order is the aggregate root. ID is assigned by the repository on
// creation; UserID, LineItems, TotalAmount and CreatedAt never change
// afterwards. Status mutates only through the lifecycle service and
// IsDeleted only through cancel / soft delete.
type Order struct {
	ID          int64
	UserID      int64
	LineItems   map[int64]int
	TotalAmount float64
	Status      Status
	IsDeleted   bool
	CreatedAt   time.Time
}

// CloneItems returns a defensive copy of the line items so callers
// cannot mutate the aggregate through a shared map.
func (o *Order) CloneItems() map[int64]int {
	items := make(map[int64]int, len(o.LineItems))
	for id, qty := range o.LineItems {
		items[id] = qty
	}
	return items
}

// ValidatePlacement checks the structural invariants of a placement
// request: positive user, non-empty items, positive ids and quantities.
// It never touches a collaborator.
func ValidatePlacement(userID int64, lineItems map[int64]int) error {
	if userID <= 0 {
		return &ValidationError{Msg: "userId must be positive"}
	}
	if len(lineItems) == 0 {
		return &ValidationError{Msg: "bookOrder must contain at least one item"}
	}
	for bookID, qty := range lineItems {
		if bookID <= 0 {
			return &ValidationError{Msg: fmt.Sprintf("invalid book id %d", bookID)}
		}
		if qty <= 0 {
			return &ValidationError{Msg: fmt.Sprintf("quantity for book %d must be positive", bookID)}
		}
	}
	return nil
}

// CanChangeStatus is the terminal-state guard for status overwrites.
// Transitions among non-terminal states are deliberately unrestricted.
func CanChangeStatus(current, next Status) error {
	if current.Terminal() {
		return &InvalidTransitionError{From: current, To: next}
	}
	return nil
}

// CanCancel rejects cancellation of orders that are already finalized.
func CanCancel(current Status) error {
	if current.Terminal() {
		return &CancellationError{Status: current}
	}
	return nil
}
