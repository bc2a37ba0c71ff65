package app

import (
	"context"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
)

// Query is the read side over the order repository. Soft-deleted rows
// never appear; the repository applies that filter uniformly.
type Query struct {
	repo OrderRepository
}

func NewQuery(repo OrderRepository) *Query {
	return &Query{repo: repo}
}

func (q *Query) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	return q.repo.GetByID(ctx, orderID)
}

func (q *Query) GetAll(ctx context.Context) ([]domain.Order, error) {
	return q.repo.GetAll(ctx)
}

func (q *Query) GetByStatus(ctx context.Context, status domain.Status) ([]domain.Order, error) {
	return q.repo.GetByStatus(ctx, status)
}
