// Package memory is an in-memory OrderRepository for tests and local
// development. It applies the same guards and soft-delete filtering as
// the SQLite adapter, with a single mutex serializing all access.
package memory

import (
	"context"
	"sync"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
)

type Repository struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*domain.Order
}

func NewRepository() *Repository {
	return &Repository{
		nextID: 1,
		orders: make(map[int64]*domain.Order),
	}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *order
	stored.ID = r.nextID
	stored.LineItems = order.CloneItems()
	r.nextID++
	r.orders[stored.ID] = &stored

	created := stored
	created.LineItems = stored.CloneItems()
	return &created, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.IsDeleted {
		return nil, domain.ErrOrderNotFound
	}

	out := *order
	out.LineItems = order.CloneItems()
	return &out, nil
}

func (r *Repository) GetAll(_ context.Context) ([]domain.Order, error) {
	return r.collect(func(o *domain.Order) bool { return true }), nil
}

func (r *Repository) GetByStatus(_ context.Context, status domain.Status) ([]domain.Order, error) {
	return r.collect(func(o *domain.Order) bool { return o.Status == status }), nil
}

func (r *Repository) UpdateStatus(_ context.Context, id int64, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.IsDeleted {
		return domain.ErrOrderNotFound
	}
	if err := domain.CanChangeStatus(order.Status, status); err != nil {
		return err
	}

	order.Status = status
	return nil
}

func (r *Repository) Cancel(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Soft-deleted rows stay visible here: a second cancel reports the
	// terminal status, not a missing order.
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if err := domain.CanCancel(order.Status); err != nil {
		return err
	}

	order.Status = domain.StatusCancelled
	order.IsDeleted = true
	return nil
}

func (r *Repository) SoftDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.IsDeleted {
		return domain.ErrOrderNotFound
	}

	order.IsDeleted = true
	return nil
}

func (r *Repository) collect(keep func(*domain.Order) bool) []domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Order
	for id := int64(1); id < r.nextID; id++ {
		order, ok := r.orders[id]
		if !ok || order.IsDeleted || !keep(order) {
			continue
		}
		copied := *order
		copied.LineItems = order.CloneItems()
		out = append(out, copied)
	}
	return out
}
