// Package mysql implements the inventory Store on MySQL.
//
// The all-or-nothing guarantee comes from a single transaction that
// locks the requested rows with SELECT ... FOR UPDATE, verifies every
// quantity, and only then decrements. Two concurrent reductions for
// the same scarce book serialize on the row lock; the loser observes
// the reduced stock and fails without decrementing anything.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	// MySQL driver registration.
	_ "github.com/go-sql-driver/mysql"

	inventoryservice "github.com/avelar-dev/bookstore-orders/internal/inventory-service"
)

const schema = `
CREATE TABLE IF NOT EXISTS inventory (
    book_id    BIGINT      NOT NULL PRIMARY KEY,
    stock      INT         NOT NULL,
    updated_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

type Store struct {
	db *sql.DB
}

// Open connects to MySQL with the given DSN and ensures the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CheckAvailability(ctx context.Context, quantities map[int64]int) (map[int64]bool, error) {
	stocks, err := s.readStocks(ctx, s.db, quantities, false)
	if err != nil {
		return nil, err
	}

	availability := make(map[int64]bool, len(quantities))
	for bookID, qty := range quantities {
		stock, known := stocks[bookID]
		availability[bookID] = known && stock >= qty
	}
	return availability, nil
}

func (s *Store) Reduce(ctx context.Context, reservationRef string, quantities map[int64]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mysql: begin tx: %w", err)
	}
	defer tx.Rollback()

	stocks, err := s.readStocks(ctx, tx, quantities, true)
	if err != nil {
		return err
	}

	var short []int64
	for bookID, qty := range quantities {
		stock, known := stocks[bookID]
		if !known || stock < qty {
			short = append(short, bookID)
		}
	}
	if len(short) > 0 {
		// Rollback via defer: nothing is decremented.
		return &inventoryservice.ShortStockError{BookIDs: short}
	}

	for bookID, qty := range quantities {
		if _, err := tx.ExecContext(ctx, `
			UPDATE inventory SET stock = stock - ? WHERE book_id = ?`,
			qty, bookID,
		); err != nil {
			return fmt.Errorf("mysql: reduce stock for book %d: %w", bookID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mysql: commit reduction: %w", err)
	}

	slog.InfoContext(ctx, "stock reduced",
		"reservation_ref", reservationRef,
		"books", len(quantities),
	)
	return nil
}

// SetStock seeds or replaces a stock level. Used by provisioning.
func (s *Store) SetStock(ctx context.Context, bookID int64, stock int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (book_id, stock) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE stock = VALUES(stock)`,
		bookID, stock,
	)
	if err != nil {
		return fmt.Errorf("mysql: set stock for book %d: %w", bookID, err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) readStocks(ctx context.Context, q querier, quantities map[int64]int, forUpdate bool) (map[int64]int, error) {
	placeholders := make([]string, 0, len(quantities))
	args := make([]any, 0, len(quantities))
	for bookID := range quantities {
		placeholders = append(placeholders, "?")
		args = append(args, bookID)
	}

	query := fmt.Sprintf(`SELECT book_id, stock FROM inventory WHERE book_id IN (%s)`,
		strings.Join(placeholders, ","))
	if forUpdate {
		query += " FOR UPDATE"
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: query stocks: %w", err)
	}
	defer rows.Close()

	stocks := make(map[int64]int, len(quantities))
	for rows.Next() {
		var bookID int64
		var stock int
		if err := rows.Scan(&bookID, &stock); err != nil {
			return nil, fmt.Errorf("mysql: scan stock: %w", err)
		}
		stocks[bookID] = stock
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: iterate stocks: %w", err)
	}
	return stocks, nil
}
