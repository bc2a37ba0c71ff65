package app

import (
	"context"
	"log/slog"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
)

// Lifecycle governs every mutation of an existing order. The terminal
// states DELIVERED and CANCELLED reject all further changes, including
// re-applying the same terminal value; transitions among non-terminal
// states are otherwise unrestricted. The repository enforces the same
// guard inside its per-order transaction, so two concurrent mutations
// on one order cannot interleave past it.
type Lifecycle struct {
	repo OrderRepository
}

func NewLifecycle(repo OrderRepository) *Lifecycle {
	return &Lifecycle{repo: repo}
}

// ChangeStatus overwrites the status of a live order and returns the
// updated aggregate.
func (l *Lifecycle) ChangeStatus(ctx context.Context, orderID int64, newStatus domain.Status) (*domain.Order, error) {
	if err := l.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order status changed", "order_id", orderID, "status", newStatus)
	return l.repo.GetByID(ctx, orderID)
}

// Cancel sets the order CANCELLED and soft-deletes it in one logical
// operation. A cancelled or delivered order cannot be cancelled again.
func (l *Lifecycle) Cancel(ctx context.Context, orderID int64) error {
	if err := l.repo.Cancel(ctx, orderID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "order cancelled", "order_id", orderID)
	return nil
}

// SoftDelete is the administrative removal: the order disappears from
// every standard query but stays in storage for audit. No particular
// status is required.
func (l *Lifecycle) SoftDelete(ctx context.Context, orderID int64) error {
	if err := l.repo.SoftDelete(ctx, orderID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "order soft-deleted", "order_id", orderID)
	return nil
}
