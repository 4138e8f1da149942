package joinrequest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code raised by the partial unique
// index on (trip_id, requester_id) WHERE status = 'pending'.
const uniqueViolation = "23505"

// Repository handles join request persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new join request repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending request. The one-pending-per-(trip,requester)
// invariant is enforced by the database, not a read-then-write, so two
// concurrent submissions cannot both slip through.
func (r *Repository) Create(ctx context.Context, jr *JoinRequest) error {
	query := `
		INSERT INTO join_requests (trip_id, requester_id, requester_email, requester_name, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		jr.TripID, jr.RequesterID, jr.RequesterEmail, jr.RequesterName, jr.Reason, jr.Status,
	).Scan(&jr.ID, &jr.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create join request: %w", err)
	}
	return nil
}

const requestColumns = `
	id, trip_id, requester_id, requester_email, requester_name,
	reason, status, admin_notes, resolved_by, resolved_at, created_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*JoinRequest, error) {
	jr := &JoinRequest{}
	err := row.Scan(
		&jr.ID, &jr.TripID, &jr.RequesterID, &jr.RequesterEmail, &jr.RequesterName,
		&jr.Reason, &jr.Status, &jr.AdminNotes, &jr.ResolvedBy, &jr.ResolvedAt, &jr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return jr, nil
}

// GetByID retrieves a join request. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*JoinRequest, error) {
	jr, err := scanRequest(r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM join_requests WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}
	return jr, nil
}

// ListByTrip retrieves all requests targeting a trip, newest first.
func (r *Repository) ListByTrip(ctx context.Context, tripID string) ([]*JoinRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM join_requests WHERE trip_id = $1 ORDER BY created_at DESC`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()

	var requests []*JoinRequest
	for rows.Next() {
		jr, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, jr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate join requests: %w", err)
	}
	return requests, nil
}

// resolvePendingTx flips a pending request to a resolved status; the WHERE
// clause on status makes the update race-free — zero rows means someone else
// resolved it first.
func (r *Repository) resolvePendingTx(ctx context.Context, tx *sql.Tx, id int64, status Status, notes *string, resolvedBy string, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE join_requests
		SET status = $2, admin_notes = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1 AND status = $6
	`, id, status, notes, resolvedBy, at, StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to resolve join request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to resolve join request: %w", err)
	}
	return n == 1, nil
}

// ResolvePending is the non-locking variant used for rejection and
// cancellation, which never touch the target trip.
func (r *Repository) ResolvePending(ctx context.Context, id int64, status Status, notes *string, resolvedBy string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := r.resolvePendingTx(ctx, tx, id, status, notes, resolvedBy, at)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ok, nil
}

// ResolvePendingTx participates in the approval transaction that also locks
// and mutates the target trip.
func (r *Repository) ResolvePendingTx(ctx context.Context, tx *sql.Tx, id int64, status Status, notes *string, resolvedBy string, at time.Time) (bool, error) {
	return r.resolvePendingTx(ctx, tx, id, status, notes, resolvedBy, at)
}
