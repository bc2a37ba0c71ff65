package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
	"github.com/avelar-dev/bookstore-orders/internal/order-service/placementlog"
)

// Placement orchestrates order placement across the catalog and
// inventory collaborators.
//
// The flow is: validate locally, fetch the price snapshot and the
// availability pre-check in parallel, then commit the stock reduction,
// then persist the order. The reduction is the single stock-mutating
// step and is NOT transactionally linked to persistence: if the
// repository fails afterwards the reduced stock stays reduced and the
// caller sees ErrOrderNotPlaced. Every attempt is appended to the
// placement log so such orphaned reductions can be reconciled by hand.
type Placement struct {
	quotes PriceQuoteClient
	stock  StockReservationClient
	repo   OrderRepository
	audit  placementlog.Repository // nil-safe: auditing skipped if nil
	now    func() time.Time
}

// NewPlacement wires the orchestrator. auditRepo may be nil, in which
// case placement attempts are not persisted to the log.
func NewPlacement(quotes PriceQuoteClient, stock StockReservationClient, repo OrderRepository, auditRepo placementlog.Repository) *Placement {
	return &Placement{
		quotes: quotes,
		stock:  stock,
		repo:   repo,
		audit:  auditRepo,
		now:    time.Now,
	}
}

// PlaceOrder places a new order for userID and returns it in PENDING
// status with the repository-assigned ID.
func (p *Placement) PlaceOrder(ctx context.Context, userID int64, lineItems map[int64]int) (*domain.Order, error) {
	if err := domain.ValidatePlacement(userID, lineItems); err != nil {
		return nil, err
	}

	ref := uuid.NewString()
	p.logPhase(ctx, ref, userID, placementlog.PhaseStarted, marshalItems(lineItems), 0, nil)

	slog.InfoContext(ctx, "placing order",
		"placement_ref", ref,
		"user_id", userID,
		"items", len(lineItems),
	)

	// Price lookup does not depend on the reservation outcome, so the
	// quote and the availability pre-check run as parallel round-trips.
	// Both must succeed before any stock is touched.
	var prices map[int64]float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quoted, err := p.quotes.Quote(gctx, bookIDs(lineItems))
		if err != nil {
			return err
		}
		prices = quoted
		return nil
	})
	g.Go(func() error {
		return p.checkAvailability(gctx, lineItems)
	})
	if err := g.Wait(); err != nil {
		p.logPhase(ctx, ref, userID, placementlog.PhaseFailed, "", 0, err)
		return nil, err
	}

	// The price contract guarantees full coverage, but the total below
	// silently treats a missing entry as zero, so re-check here.
	if missing := missingPrices(lineItems, prices); len(missing) > 0 {
		err := &domain.PriceNotFoundError{BookIDs: missing}
		p.logPhase(ctx, ref, userID, placementlog.PhaseFailed, "", 0, err)
		return nil, err
	}

	// Sole stock-mutating step. All-or-nothing inside the inventory
	// collaborator; a concurrent placement that raced past our pre-check
	// fails cleanly here without partial decrements.
	if err := p.stock.Reduce(ctx, ref, lineItems); err != nil {
		p.logPhase(ctx, ref, userID, placementlog.PhaseFailed, "", 0, err)
		return nil, err
	}
	p.logPhase(ctx, ref, userID, placementlog.PhaseStockReduced, "", 0, nil)

	var total float64
	for bookID, qty := range lineItems {
		total += prices[bookID] * float64(qty)
	}

	items := make(map[int64]int, len(lineItems))
	for id, qty := range lineItems {
		items[id] = qty
	}

	order := &domain.Order{
		UserID:      userID,
		LineItems:   items,
		TotalAmount: total,
		Status:      domain.StatusPending,
		CreatedAt:   p.now().UTC(),
	}

	created, err := p.repo.Create(ctx, order)
	if err != nil {
		// Stock was already reduced and is not restored here. The
		// STOCK_REDUCED/FAILED tail in the placement log is what the
		// reconciliation queries look for.
		wrapped := fmt.Errorf("%w: %v", domain.ErrOrderNotPlaced, err)
		p.logPhase(ctx, ref, userID, placementlog.PhaseFailed, "", 0, wrapped)
		slog.ErrorContext(ctx, "order persistence failed after stock reduction",
			"placement_ref", ref,
			"user_id", userID,
			"error", err,
		)
		return nil, wrapped
	}

	p.logPhase(ctx, ref, userID, placementlog.PhaseCompleted, "", created.ID, nil)
	slog.InfoContext(ctx, "order placed",
		"placement_ref", ref,
		"order_id", created.ID,
		"total", created.TotalAmount,
	)
	return created, nil
}

// checkAvailability runs the pre-flight bulk check and classifies the
// result: an incomplete map is a transient inventory fault, any false
// value is a shortage naming every short book.
func (p *Placement) checkAvailability(ctx context.Context, lineItems map[int64]int) error {
	availability, err := p.stock.CheckAvailability(ctx, lineItems)
	if err != nil {
		return err
	}

	var missing, short []int64
	for bookID := range lineItems {
		available, ok := availability[bookID]
		switch {
		case !ok:
			missing = append(missing, bookID)
		case !available:
			short = append(short, bookID)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: availability result missing books %v", domain.ErrInventoryUnavailable, missing)
	}
	if len(short) > 0 {
		return &domain.InsufficientStockError{BookIDs: short}
	}
	return nil
}

func (p *Placement) logPhase(ctx context.Context, ref string, userID int64, phase placementlog.Phase, payload string, orderID int64, failure error) {
	if p.audit == nil {
		return
	}

	var errs []string
	if failure != nil {
		errs = []string{failure.Error()}
	}

	entry := placementlog.NewEntry(ctx, ref, userID, phase, payload, errs)
	entry.OrderID = orderID
	if err := p.audit.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to save placement log entry",
			"placement_ref", ref,
			"phase", phase,
			"error", err,
		)
	}
}

func bookIDs(lineItems map[int64]int) []int64 {
	ids := make([]int64, 0, len(lineItems))
	for id := range lineItems {
		ids = append(ids, id)
	}
	return ids
}

func missingPrices(lineItems map[int64]int, prices map[int64]float64) []int64 {
	var missing []int64
	for id := range lineItems {
		if _, ok := prices[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func marshalItems(lineItems map[int64]int) string {
	b, err := json.Marshal(lineItems)
	if err != nil {
		return ""
	}
	return string(b)
}
