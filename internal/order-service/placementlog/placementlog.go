// Package placementlog is a durable audit trail of order placement
// attempts.
//
// Placement crosses two independently owned stores (inventory, orders)
// without a distributed transaction: when persistence fails after the
// stock reduction succeeded, the reduced stock is not restored by the
// core. The log records every attempt and its last known phase, so an
// operator can find reductions with no matching order and reconcile
// them by hand. Rows also carry the active trace, which links a stuck
// placement directly to its distributed trace.
package placementlog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Phase is the point a placement attempt has reached.
type Phase string

const (
	PhaseStarted      Phase = "STARTED"
	PhaseStockReduced Phase = "STOCK_REDUCED"
	PhaseCompleted    Phase = "COMPLETED"
	PhaseFailed       Phase = "FAILED"
)

// Entry is a single row in the placement_logs table. Rows are
// append-only; the latest row per ref is the current state.
type Entry struct {
	// PlacementRef is the uuid generated per attempt. The same ref is
	// sent to the inventory collaborator as X-Reservation-Ref, which is
	// what makes orphaned reductions findable.
	PlacementRef string

	UserID int64

	Phase Phase

	// OrderID is set on COMPLETED rows once the repository assigned it.
	OrderID int64

	// Payload is the JSON-serialised line items, written once on STARTED.
	Payload string

	// ErrorMessages is a JSON array of failure details, "[]" when clean.
	ErrorMessages string

	TraceID string
	SpanID  string

	CreatedAt time.Time
}

// Repository persists log entries. Append-only; never an upsert.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}

// NewEntry builds an Entry with trace identifiers extracted from the
// active span in ctx. Without an active span (unit tests) both ids are
// empty strings.
func NewEntry(ctx context.Context, ref string, userID int64, phase Phase, payload string, errs []string) *Entry {
	sc := trace.SpanFromContext(ctx).SpanContext()

	traceID, spanID := "", ""
	if sc.IsValid() {
		traceID = sc.TraceID().String()
		spanID = sc.SpanID().String()
	}

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	return &Entry{
		PlacementRef:  ref,
		UserID:        userID,
		Phase:         phase,
		Payload:       payload,
		ErrorMessages: errJSON,
		TraceID:       traceID,
		SpanID:        spanID,
		CreatedAt:     time.Now().UTC(),
	}
}
