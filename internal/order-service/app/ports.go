package app

import (
	"context"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
)

// PriceQuoteClient resolves book ids to authoritative unit prices.
//
// Implementations must return a price for every requested id or fail:
// a missing id is a *domain.PriceNotFoundError, a transport fault or
// 5xx is domain.ErrCatalogUnavailable. Read-only.
type PriceQuoteClient interface {
	Quote(ctx context.Context, bookIDs []int64) (map[int64]float64, error)
}

// StockReservationClient is the check-then-commit pair against the
// inventory collaborator.
type StockReservationClient interface {
	// CheckAvailability returns per-book availability for the requested
	// quantities. The caller must verify the map covers every requested
	// key; an incomplete result is a transient fault.
	CheckAvailability(ctx context.Context, quantities map[int64]int) (map[int64]bool, error)

	// Reduce decrements stock for every requested book, all-or-nothing.
	// On shortage nothing is decremented and the error is a
	// *domain.InsufficientStockError naming the short ids. reservationRef
	// tags the reduction so it can be joined with the placement log.
	Reduce(ctx context.Context, reservationRef string, quantities map[int64]int) error
}

// OrderRepository is the persistence boundary for the Order aggregate.
//
// Every read excludes soft-deleted rows; the filter lives in the
// implementation, not in callers. Mutations run under a per-order
// transaction (or equivalent serialization) and return the classified
// domain error themselves, so concurrent mutations on one order cannot
// interleave past the terminal-state guard.
type OrderRepository interface {
	// Create persists the order and returns it with the assigned ID.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// GetByID returns domain.ErrOrderNotFound for missing or soft-deleted rows.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	GetAll(ctx context.Context) ([]domain.Order, error)
	GetByStatus(ctx context.Context, status domain.Status) ([]domain.Order, error)

	// UpdateStatus overwrites the status of a live, non-terminal order.
	// Fails with domain.ErrOrderNotFound (missing or soft-deleted) or
	// *domain.InvalidTransitionError (terminal).
	UpdateStatus(ctx context.Context, id int64, status domain.Status) error

	// Cancel sets CANCELLED and marks the order soft-deleted in one
	// operation. Unlike UpdateStatus it sees soft-deleted rows, so a
	// second cancel reports *domain.CancellationError, not not-found.
	Cancel(ctx context.Context, id int64) error

	// SoftDelete marks a live order deleted regardless of status.
	SoftDelete(ctx context.Context, id int64) error
}
