package override

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository persists the append-only override audit log.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new override log repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertTx appends an audit entry inside the override transaction so the
// trip update and its audit record commit together.
func (r *Repository) InsertTx(ctx context.Context, tx *sql.Tx, e *LogEntry) error {
	query := `
		INSERT INTO admin_override_log (
			trip_id, action_type, admin_email, reason,
			original_status, new_status, override_reason,
			force_override, ip_address, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err := tx.QueryRowContext(ctx, query,
		e.TripID, e.Action, e.AdminEmail, e.Note,
		e.OriginalStatus, e.NewStatus, e.OverrideReason,
		e.ForceOverride, e.IPAddress, e.UserAgent,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append override log: %w", err)
	}
	return nil
}

// ListByTrip retrieves the audit trail for a trip, oldest first.
func (r *Repository) ListByTrip(ctx context.Context, tripID string) ([]*LogEntry, error) {
	query := `
		SELECT id, trip_id, action_type, admin_email, reason,
		       original_status, new_status, override_reason,
		       force_override, ip_address, user_agent, created_at
		FROM admin_override_log
		WHERE trip_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list override log: %w", err)
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		e := &LogEntry{}
		if err := rows.Scan(
			&e.ID, &e.TripID, &e.Action, &e.AdminEmail, &e.Note,
			&e.OriginalStatus, &e.NewStatus, &e.OverrideReason,
			&e.ForceOverride, &e.IPAddress, &e.UserAgent, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan override log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate override log: %w", err)
	}
	return entries, nil
}
