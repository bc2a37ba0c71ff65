// Package sqlite provides a SQLite-backed implementation of
// placementlog.Repository.
//
// WAL mode is enabled on Open so the placement goroutine can write
// while an operator queries the log for reconciliation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/placementlog"

	// Pure-Go SQLite driver; no CGO, so the service builds on Alpine.
	_ "modernc.org/sqlite"
)

// The table is append-only: each row is an immutable event in a
// placement attempt. The latest row per placement_ref is its current
// phase; a STOCK_REDUCED or FAILED tail with no COMPLETED row marks a
// reduction that may need manual reconciliation.
const schema = `
CREATE TABLE IF NOT EXISTS placement_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    -- uuid of the placement attempt; also sent to inventory as
    -- X-Reservation-Ref. Not UNIQUE: one row per phase transition.
    placement_ref   TEXT        NOT NULL,

    user_id         INTEGER     NOT NULL,

    phase           TEXT        NOT NULL,

    -- Order ID once assigned; 0 until COMPLETED.
    order_id        INTEGER     NOT NULL DEFAULT 0,

    -- JSON line items, written once on STARTED, NULL after.
    payload         TEXT,

    -- JSON array of error strings.
    error_messages  TEXT        NOT NULL DEFAULT '[]',

    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, SQLite idiom.
    created_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_placement_logs_ref ON placement_logs(placement_ref, created_at);
CREATE INDEX IF NOT EXISTS idx_placement_logs_trace ON placement_logs(trace_id);
`

// Repository is the SQLite implementation of placementlog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
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

// Save inserts a new log entry. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, entry *placementlog.Entry) error {
	const q = `
		INSERT INTO placement_logs
			(placement_ref, user_id, phase, order_id, payload, error_messages, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.PlacementRef,
		entry.UserID,
		string(entry.Phase),
		entry.OrderID,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save placement log for %q: %w", entry.PlacementRef, err)
	}
	return nil
}

// GetLatest returns the most recent entry for a placement ref, for the
// reconciliation and status tooling.
func (r *Repository) GetLatest(ctx context.Context, ref string) (*placementlog.Entry, error) {
	const q = `
		SELECT placement_ref, user_id, phase, order_id, COALESCE(payload,''), error_messages,
		       trace_id, span_id, created_at
		FROM   placement_logs
		WHERE  placement_ref = ?
		ORDER  BY created_at DESC, id DESC
		LIMIT  1`

	row := r.db.QueryRowContext(ctx, q, ref)

	var entry placementlog.Entry
	var createdAt string
	err := row.Scan(
		&entry.PlacementRef,
		&entry.UserID,
		&entry.Phase,
		&entry.OrderID,
		&entry.Payload,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: placement %q not found", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", ref, err)
	}

	entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse time %q: %w", createdAt, err)
	}

	return &entry, nil
}

// nullableString returns nil for empty strings so SQLite stores NULL
// instead of an empty TEXT on non-STARTED rows.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
