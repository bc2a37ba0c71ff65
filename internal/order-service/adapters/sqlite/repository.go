// Package sqlite implements the OrderRepository port on SQLite.
//
// The soft-delete predicate is baked into every read, so callers can
// never accidentally see a deleted order. Status mutations run inside
// a transaction that re-reads the row, which together with the single
// writer connection serializes concurrent mutations per order.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"

	// Pure-Go SQLite driver, no CGO.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      INTEGER NOT NULL,
    total_amount REAL    NOT NULL,
    status       TEXT    NOT NULL,
    is_deleted   INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    order_id  INTEGER NOT NULL REFERENCES orders(id),
    book_id   INTEGER NOT NULL,
    quantity  INTEGER NOT NULL,
    PRIMARY KEY (order_id, book_id)
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status) WHERE is_deleted = 0;
`

// Repository is the SQLite implementation of app.OrderRepository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the orders database at path and applies the
// schema. WAL mode keeps reads from blocking the writer.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Create persists the aggregate and its line items in one transaction
// and returns a copy carrying the assigned ID.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (user_id, total_amount, status, is_deleted, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		order.UserID, order.TotalAmount, string(order.Status),
		order.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite: order id: %w", err)
	}

	for bookID, qty := range order.LineItems {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, book_id, quantity)
			VALUES (?, ?, ?)`, id, bookID, qty,
		); err != nil {
			return nil, fmt.Errorf("sqlite: insert order item %d: %w", bookID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit order: %w", err)
	}

	created := *order
	created.ID = id
	created.LineItems = order.CloneItems()
	return &created, nil
}

// GetByID returns domain.ErrOrderNotFound for missing and soft-deleted
// rows alike.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_amount, status, is_deleted, created_at
		FROM   orders
		WHERE  id = ? AND is_deleted = 0`, id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) GetAll(ctx context.Context) ([]domain.Order, error) {
	return r.queryOrders(ctx, `
		SELECT id, user_id, total_amount, status, is_deleted, created_at
		FROM   orders
		WHERE  is_deleted = 0
		ORDER  BY id`)
}

func (r *Repository) GetByStatus(ctx context.Context, status domain.Status) ([]domain.Order, error) {
	return r.queryOrders(ctx, `
		SELECT id, user_id, total_amount, status, is_deleted, created_at
		FROM   orders
		WHERE  is_deleted = 0 AND status = ?
		ORDER  BY id`, string(status))
}

// UpdateStatus overwrites the status of a live, non-terminal order.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	return r.mutate(ctx, id, false, func(tx *sql.Tx, current domain.Status) error {
		if err := domain.CanChangeStatus(current, status); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
		return err
	})
}

// Cancel sets CANCELLED and soft-deletes in one statement. It looks at
// soft-deleted rows too: a second cancel must report the terminal
// status, not a missing order.
func (r *Repository) Cancel(ctx context.Context, id int64) error {
	return r.mutate(ctx, id, true, func(tx *sql.Tx, current domain.Status) error {
		if err := domain.CanCancel(current); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, is_deleted = 1 WHERE id = ?`,
			string(domain.StatusCancelled), id)
		return err
	})
}

// SoftDelete hides a live order from all standard queries, regardless
// of status. The row is retained for audit.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET is_deleted = 1 WHERE id = ? AND is_deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("sqlite: soft delete order %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: soft delete order %d: %w", id, err)
	}
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// mutate runs a guarded status mutation inside a transaction: read the
// current status, apply the domain guard, update. includeDeleted
// controls whether soft-deleted rows are visible to the guard.
func (r *Repository) mutate(ctx context.Context, id int64, includeDeleted bool, apply func(tx *sql.Tx, current domain.Status) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	q := `SELECT status FROM orders WHERE id = ? AND is_deleted = 0`
	if includeDeleted {
		q = `SELECT status FROM orders WHERE id = ?`
	}

	var current string
	if err := tx.QueryRowContext(ctx, q, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("sqlite: read order %d: %w", id, err)
	}

	if err := apply(tx, domain.Status(current)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit order %d: %w", id, err)
	}
	return nil
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate orders: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT book_id, quantity FROM order_items WHERE order_id = ?`, order.ID)
	if err != nil {
		return fmt.Errorf("sqlite: query items for order %d: %w", order.ID, err)
	}
	defer rows.Close()

	order.LineItems = make(map[int64]int)
	for rows.Next() {
		var bookID int64
		var qty int
		if err := rows.Scan(&bookID, &qty); err != nil {
			return fmt.Errorf("sqlite: scan item for order %d: %w", order.ID, err)
		}
		order.LineItems[bookID] = qty
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var order domain.Order
	var status, createdAt string
	var deleted int

	err := row.Scan(&order.ID, &order.UserID, &order.TotalAmount, &status, &deleted, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan order: %w", err)
	}

	order.Status = domain.Status(status)
	order.IsDeleted = deleted != 0
	order.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse time %q: %w", createdAt, err)
	}
	return &order, nil
}
