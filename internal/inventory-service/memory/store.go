// Package memory is an in-memory inventory Store for tests and for
// running the service without a MySQL instance. A single mutex covers
// the whole table, so every reduction is trivially all-or-nothing.
package memory

import (
	"context"
	"log/slog"
	"sync"

	inventoryservice "github.com/avelar-dev/bookstore-orders/internal/inventory-service"
)

type Store struct {
	mu    sync.Mutex
	stock map[int64]int
}

func NewStore(seed map[int64]int) *Store {
	stock := make(map[int64]int, len(seed))
	for bookID, qty := range seed {
		stock[bookID] = qty
	}
	return &Store{stock: stock}
}

func (s *Store) CheckAvailability(_ context.Context, quantities map[int64]int) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	availability := make(map[int64]bool, len(quantities))
	for bookID, qty := range quantities {
		stock, known := s.stock[bookID]
		availability[bookID] = known && stock >= qty
	}
	return availability, nil
}

func (s *Store) Reduce(ctx context.Context, reservationRef string, quantities map[int64]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var short []int64
	for bookID, qty := range quantities {
		stock, known := s.stock[bookID]
		if !known || stock < qty {
			short = append(short, bookID)
		}
	}
	if len(short) > 0 {
		return &inventoryservice.ShortStockError{BookIDs: short}
	}

	for bookID, qty := range quantities {
		s.stock[bookID] -= qty
	}

	slog.InfoContext(ctx, "stock reduced",
		"reservation_ref", reservationRef,
		"books", len(quantities),
	)
	return nil
}

// SetStock seeds or replaces a stock level.
func (s *Store) SetStock(_ context.Context, bookID int64, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[bookID] = stock
	return nil
}

// Stock reports the current level for a book; used by tests.
func (s *Store) Stock(bookID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[bookID]
}
