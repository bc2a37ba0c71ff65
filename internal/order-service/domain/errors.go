package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the failure kinds that carry no extra data.
// Callers classify with errors.Is.
var (
	// ErrOrderNotFound covers both a missing row and a soft-deleted one.
	ErrOrderNotFound = errors.New("order not found")

	// ErrCatalogUnavailable means the catalog collaborator could not be
	// reached or answered with a transient fault.
	ErrCatalogUnavailable = errors.New("catalog service unavailable")

	// ErrInventoryUnavailable means the inventory collaborator could not
	// be reached, timed out, or returned an incomplete availability map.
	ErrInventoryUnavailable = errors.New("inventory service unavailable")

	// ErrOrderNotPlaced means persistence failed after the stock
	// reduction already happened. The reduced stock is NOT restored;
	// the placement log keeps the evidence for reconciliation.
	ErrOrderNotPlaced = errors.New("order could not be placed")
)

// ValidationError is a structurally malformed request. It is resolved
// locally; no collaborator is ever called.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Msg }

// PriceNotFoundError reports book ids the catalog has no price for.
type PriceNotFoundError struct {
	BookIDs []int64
}

func (e *PriceNotFoundError) Error() string {
	return "no price found for books " + joinIDs(e.BookIDs)
}

// InsufficientStockError names every book the inventory could not cover.
type InsufficientStockError struct {
	BookIDs []int64
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock for books " + joinIDs(e.BookIDs)
}

// InvalidTransitionError is a status change attempted on a terminal order.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// CancellationError is a cancel attempted on a terminal order.
type CancellationError struct {
	Status Status
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancellation not allowed in status %s", e.Status)
}

func joinIDs(ids []int64) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
