package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/adapters/memory"
	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
)

func seedOrder(t *testing.T, repo *memory.Repository, status domain.Status) int64 {
	t.Helper()

	order, err := repo.Create(context.Background(), &domain.Order{
		UserID:      7,
		LineItems:   map[int64]int{101: 1},
		TotalAmount: 399.0,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return order.ID
}

func TestChangeStatus_ForwardAndBackward(t *testing.T) {
	repo := memory.NewRepository()
	lc := NewLifecycle(repo)
	id := seedOrder(t, repo, domain.StatusPending)

	order, err := lc.ChangeStatus(context.Background(), id, domain.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, order.Status)

	// Backward moves among non-terminal states are permitted.
	order, err = lc.ChangeStatus(context.Background(), id, domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
}

func TestChangeStatus_TerminalStatesRejectEverything(t *testing.T) {
	for _, terminal := range []domain.Status{domain.StatusDelivered, domain.StatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			repo := memory.NewRepository()
			lc := NewLifecycle(repo)
			id := seedOrder(t, repo, terminal)

			for _, next := range []domain.Status{
				domain.StatusPending, domain.StatusConfirmed, domain.StatusShipped,
				domain.StatusDelivered, domain.StatusCancelled,
			} {
				_, err := lc.ChangeStatus(context.Background(), id, next)

				var transitionErr *domain.InvalidTransitionError
				require.ErrorAs(t, err, &transitionErr, "terminal %s must reject change to %s", terminal, next)
			}
		})
	}
}

func TestChangeStatus_MissingOrDeletedOrder(t *testing.T) {
	repo := memory.NewRepository()
	lc := NewLifecycle(repo)

	_, err := lc.ChangeStatus(context.Background(), 42, domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	id := seedOrder(t, repo, domain.StatusPending)
	require.NoError(t, lc.SoftDelete(context.Background(), id))

	_, err = lc.ChangeStatus(context.Background(), id, domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCancel_ShippedOrder(t *testing.T) {
	repo := memory.NewRepository()
	lc := NewLifecycle(repo)
	query := NewQuery(repo)
	id := seedOrder(t, repo, domain.StatusShipped)

	require.NoError(t, lc.Cancel(context.Background(), id))

	// Cancelled orders are soft-deleted and disappear from all queries.
	_, err := query.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	orders, err := query.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)

	orders, err = query.GetByStatus(context.Background(), domain.StatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCancel_SecondCancelReportsTerminalStatus(t *testing.T) {
	repo := memory.NewRepository()
	lc := NewLifecycle(repo)
	id := seedOrder(t, repo, domain.StatusPending)

	require.NoError(t, lc.Cancel(context.Background(), id))

	err := lc.Cancel(context.Background(), id)
	var cancellationErr *domain.CancellationError
	require.ErrorAs(t, err, &cancellationErr)
	assert.Equal(t, domain.StatusCancelled, cancellationErr.Status)
}

func TestCancel_DeliveredOrder(t *testing.T) {
	repo := memory.NewRepository()
	lc := NewLifecycle(repo)
	id := seedOrder(t, repo, domain.StatusDelivered)

	err := lc.Cancel(context.Background(), id)
	var cancellationErr *domain.CancellationError
	require.ErrorAs(t, err, &cancellationErr)
	assert.Equal(t, domain.StatusDelivered, cancellationErr.Status)
}

func TestCancel_MissingOrder(t *testing.T) {
	lc := NewLifecycle(memory.NewRepository())

	err := lc.Cancel(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSoftDelete(t *testing.T) {
	repo := memory.NewRepository()
	lc := NewLifecycle(repo)
	query := NewQuery(repo)

	// Any status may be soft-deleted, including terminal ones.
	id := seedOrder(t, repo, domain.StatusDelivered)
	require.NoError(t, lc.SoftDelete(context.Background(), id))

	_, err := query.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	// A second delete sees no live order.
	err = lc.SoftDelete(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	err = lc.SoftDelete(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
