package trip

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repository handles trip persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new trip repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const tripColumns = `
	id, user_id, user_email, user_name,
	departure_location, destination, departure_date, departure_time, return_date, return_time,
	vehicle_type, estimated_cost, actual_cost,
	status, manager_approval_status, approved_by, approved_at,
	optimized_group_id, original_departure_time, extra_riders, notified,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(row rowScanner) (*Trip, error) {
	t := &Trip{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.UserEmail, &t.UserName,
		&t.DepartureLocation, &t.Destination, &t.DepartureDate, &t.DepartureTime, &t.ReturnDate, &t.ReturnTime,
		&t.VehicleType, &t.EstimatedCost, &t.ActualCost,
		&t.Status, &t.ManagerApprovalStatus, &t.ApprovedBy, &t.ApprovedAt,
		&t.OptimizedGroupID, &t.OriginalDepartureTime, &t.ExtraRiders, &t.Notified,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a new trip.
func (r *Repository) Create(ctx context.Context, t *Trip) error {
	query := `
		INSERT INTO trips (
			id, user_id, user_email, user_name,
			departure_location, destination, departure_date, departure_time, return_date, return_time,
			vehicle_type, estimated_cost, status, manager_approval_status,
			approved_by, approved_at, extra_riders, notified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 0, false)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.UserID, t.UserEmail, t.UserName,
		t.DepartureLocation, t.Destination, t.DepartureDate, t.DepartureTime, t.ReturnDate, t.ReturnTime,
		t.VehicleType, t.EstimatedCost, t.Status, t.ManagerApprovalStatus,
		t.ApprovedBy, t.ApprovedAt,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetByID retrieves a trip by id. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Trip, error) {
	t, err := scanTrip(r.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return t, nil
}

// ListByUser retrieves a user's trips newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Trip, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	query := `SELECT ` + tripColumns + ` FROM trips WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

// ListByStatus retrieves trips with the given status (admin listing).
func (r *Repository) ListByStatus(ctx context.Context, status TripStatus, limit, offset int) ([]*Trip, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	query := `SELECT ` + tripColumns + ` FROM trips WHERE status = $1 ORDER BY departure_date, departure_time LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

// PendingWorklist lists trips still awaiting a manager decision whose
// approval link was issued before the cutoff. These are the override
// candidates; nothing auto-transitions them.
func (r *Repository) PendingWorklist(ctx context.Context, cutoff time.Time) ([]*Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE manager_approval_status = $1
		  AND status IN ($2, $3)
		  AND created_at < $4
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ManagerPending, StatusPendingApproval, StatusPendingUrgent, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load worklist: %w", err)
	}
	defer rows.Close()

	return collectTrips(rows)
}

// OptimizationCandidates lists approved trips not yet assigned to a group.
func (r *Repository) OptimizationCandidates(ctx context.Context) ([]*Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE status IN ($1, $2)
		  AND optimized_group_id IS NULL
		ORDER BY departure_date, departure_time, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, StatusApprovedSolo, StatusAutoApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to load optimization candidates: %w", err)
	}
	defer rows.Close()

	return collectTrips(rows)
}

func collectTrips(rows *sql.Rows) ([]*Trip, error) {
	var trips []*Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

// WithTripLock runs fn inside a serializable transaction holding a row lock
// on the trip. Every mutating path (manager decision, manual override,
// optimizer acceptance, join approval) goes through this or WithTripsLock,
// so two concurrent writers to the same trip serialize and the loser sees
// the committed state. fn receives the locked row; returning an error rolls
// everything back.
func (r *Repository) WithTripLock(ctx context.Context, tripID string, fn func(ctx context.Context, tx *sql.Tx, t *Trip) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := scanTrip(tx.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, tripID))
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrTripNotFound
		}
		return fmt.Errorf("failed to lock trip: %w", err)
	}

	if err := fn(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithTripsLock is the multi-row variant used by optimizer acceptance. Rows
// are locked in id order so concurrent acceptances cannot deadlock. fn gets
// the locked rows in the same order ids were passed; a missing id fails the
// whole transaction with ErrTripNotFound.
func (r *Repository) WithTripsLock(ctx context.Context, ids []string, fn func(ctx context.Context, tx *sql.Tx, trips []*Trip) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to lock trips: %w", err)
	}
	locked, err := collectTrips(rows)
	rows.Close()
	if err != nil {
		return err
	}
	if len(locked) != len(ids) {
		return ErrTripNotFound
	}

	byID := make(map[string]*Trip, len(locked))
	for _, t := range locked {
		byID[t.ID] = t
	}
	ordered := make([]*Trip, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return ErrTripNotFound
		}
		ordered = append(ordered, t)
	}

	if err := fn(ctx, tx, ordered); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DecideTx stamps a manager (or override) decision on a locked trip row.
func (r *Repository) DecideTx(ctx context.Context, tx *sql.Tx, id string, status TripStatus, approval ManagerApprovalStatus, decidedBy string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE trips
		SET status = $2, manager_approval_status = $3, approved_by = $4, approved_at = $5, updated_at = now()
		WHERE id = $1
	`, id, status, approval, decidedBy, at)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// CancelTx moves a locked trip to cancelled.
func (r *Repository) CancelTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE trips SET status = $2, updated_at = now() WHERE id = $1
	`, id, StatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel trip: %w", err)
	}
	return nil
}

// OptimizedUpdate is the per-member write applied when a proposal commits.
type OptimizedUpdate struct {
	TripID           string
	GroupID          string
	NewDepartureTime string
	VehicleType      string
	ActualCost       float64
}

// MarkOptimizedTx applies the group linkage to one locked member trip,
// preserving the originally requested departure time.
func (r *Repository) MarkOptimizedTx(ctx context.Context, tx *sql.Tx, u OptimizedUpdate) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE trips
		SET status = $2,
		    optimized_group_id = $3,
		    original_departure_time = departure_time,
		    departure_time = $4,
		    vehicle_type = $5,
		    actual_cost = $6,
		    updated_at = now()
		WHERE id = $1
	`, u.TripID, StatusOptimized, u.GroupID, u.NewDepartureTime, u.VehicleType, u.ActualCost)
	if err != nil {
		return fmt.Errorf("failed to mark trip optimized: %w", err)
	}
	return nil
}

// AddRiderTx bumps the occupancy of a locked trip by one.
func (r *Repository) AddRiderTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE trips SET extra_riders = extra_riders + 1, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to add rider: %w", err)
	}
	return nil
}

// MarkNotified flips the notified flag outside any transaction; it trails
// the best-effort notification and may be lost without harm.
func (r *Repository) MarkNotified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE trips SET notified = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark trip notified: %w", err)
	}
	return nil
}
