// Package inventoryservice is the stock collaborator: a bulk
// availability check and an all-or-nothing bulk reduction over the
// inventory table.
package inventoryservice

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// Store is the persistence port for stock quantities.
type Store interface {
	// CheckAvailability reports, per requested book, whether the
	// requested quantity can currently be covered. Unknown books are
	// reported as unavailable, not omitted.
	CheckAvailability(ctx context.Context, quantities map[int64]int) (map[int64]bool, error)

	// Reduce decrements stock for every requested book or for none: if
	// any book (including unknown ones) cannot cover its quantity, no
	// stock changes and the error is a *ShortStockError naming them.
	// reservationRef ties the decrement to the placement that asked for
	// it, for reconciliation.
	Reduce(ctx context.Context, reservationRef string, quantities map[int64]int) error
}

// ShortStockError lists every book that blocked a reduction.
type ShortStockError struct {
	BookIDs []int64
}

func (e *ShortStockError) Error() string {
	sorted := make([]int64, len(e.BookIDs))
	copy(sorted, e.BookIDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "insufficient stock for books " + strings.Join(parts, ", ")
}
