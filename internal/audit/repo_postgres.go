package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cms-portal/pkg/utils"
)

// PostgresRepo stores events in portal_audit_events through database/sql
// (pgx stdlib driver).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS portal_audit_events (
		id          UUID PRIMARY KEY,
		type        TEXT NOT NULL,
		username    TEXT NOT NULL DEFAULT '',
		user_id     TEXT NOT NULL DEFAULT '',
		role        TEXT NOT NULL DEFAULT '',
		ip_address  TEXT NOT NULL DEFAULT '',
		path        TEXT NOT NULL DEFAULT '',
		message     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS portal_audit_events_created_at_idx
		ON portal_audit_events (created_at DESC)`,
}

// Migrate creates the table and index if they are missing.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	if err := utils.ApplySchema(ctx, r.db, schema...); err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	return nil
}

const insertEvent = `INSERT INTO portal_audit_events
	(id, type, username, user_id, role, ip_address, path, message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, insertEvent,
		e.ID, string(e.Type), e.Username, e.UserID, e.Role, e.IPAddress, e.Path, e.Message, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

const selectRecent = `SELECT id, type, username, user_id, role, ip_address, path, message, created_at
	FROM portal_audit_events ORDER BY created_at DESC LIMIT $1`

func (r *PostgresRepo) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		n = 100
	}
	rows, err := r.db.QueryContext(ctx, selectRecent, n)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	return scanEvents(rows)
}

const selectRange = `SELECT id, type, username, user_id, role, ip_address, path, message, created_at
	FROM portal_audit_events WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`

func (r *PostgresRepo) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, selectRange, from, to)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &typ, &e.Username, &e.UserID, &e.Role, &e.IPAddress, &e.Path, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
