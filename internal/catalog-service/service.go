// Package catalogservice is the price-lookup collaborator. It answers
// bulk price queries from an in-memory book table with a Redis
// read-through cache in front.
package catalogservice

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/avelar-dev/bookstore-orders/internal/pkg/cache"
)

const priceCacheTTL = 5 * time.Minute

// Service resolves book ids to unit prices. The response includes only
// ids that exist; callers detect missing books by absence.
type Service struct {
	mu     sync.RWMutex
	prices map[int64]float64
	cache  cache.Cache // nil-safe: caching skipped if nil
}

// New builds the service around a seeded price table. c may be nil.
func New(seed map[int64]float64, c cache.Cache) *Service {
	prices := make(map[int64]float64, len(seed))
	for id, price := range seed {
		prices[id] = price
	}
	return &Service{prices: prices, cache: c}
}

// Prices returns the unit price for every requested id that exists.
func (s *Service) Prices(ctx context.Context, bookIDs []int64) map[int64]float64 {
	out := make(map[int64]float64, len(bookIDs))

	for _, id := range bookIDs {
		if price, ok := s.cachedPrice(ctx, id); ok {
			out[id] = price
			continue
		}

		s.mu.RLock()
		price, ok := s.prices[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}

		out[id] = price
		s.storePrice(ctx, id, price)
	}
	return out
}

// SetPrice updates or inserts a book price. Existing orders keep the
// totals computed from the snapshot taken at placement time.
func (s *Service) SetPrice(ctx context.Context, bookID int64, price float64) {
	s.mu.Lock()
	s.prices[bookID] = price
	s.mu.Unlock()
	s.storePrice(ctx, bookID, price)
}

func (s *Service) cachedPrice(ctx context.Context, bookID int64) (float64, bool) {
	if s.cache == nil {
		return 0, false
	}

	raw, err := s.cache.Get(ctx, s.cacheKey(bookID))
	if err != nil {
		slog.WarnContext(ctx, "price cache read failed", "book_id", bookID, "error", err)
		return 0, false
	}
	if raw == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

func (s *Service) storePrice(ctx context.Context, bookID int64, price float64) {
	if s.cache == nil {
		return
	}

	value := strconv.FormatFloat(price, 'f', -1, 64)
	if err := s.cache.Set(ctx, s.cacheKey(bookID), value, priceCacheTTL); err != nil {
		slog.WarnContext(ctx, "price cache write failed", "book_id", bookID, "error", err)
	}
}

func (s *Service) cacheKey(bookID int64) string {
	return s.cache.GenerateKey("price", strconv.FormatInt(bookID, 10))
}
