package optimizer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles optimization group persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new optimization group repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertTx writes a group row inside the acceptance transaction, so the
// group and its member updates commit or roll back together.
func (r *Repository) InsertTx(ctx context.Context, tx *sql.Tx, g *Group) error {
	query := `
		INSERT INTO optimization_groups (
			id, trip_ids, departure_location, destination, departure_date,
			proposed_departure_time, vehicle_type, estimated_savings,
			status, created_by, approved_by, approved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	err := tx.QueryRowContext(ctx, query,
		g.ID, pq.Array(g.TripIDs), g.DepartureLocation, g.Destination, g.DepartureDate,
		g.ProposedDepartureTime, g.VehicleType, g.EstimatedSavings,
		g.Status, g.CreatedBy, g.ApprovedBy, g.ApprovedAt,
	).Scan(&g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert optimization group: %w", err)
	}
	return nil
}

const groupColumns = `
	id, trip_ids, departure_location, destination, departure_date,
	proposed_departure_time, vehicle_type, estimated_savings,
	status, created_by, approved_by, approved_at, created_at`

func scanGroup(row interface{ Scan(...interface{}) error }) (*Group, error) {
	g := &Group{}
	err := row.Scan(
		&g.ID, pq.Array(&g.TripIDs), &g.DepartureLocation, &g.Destination, &g.DepartureDate,
		&g.ProposedDepartureTime, &g.VehicleType, &g.EstimatedSavings,
		&g.Status, &g.CreatedBy, &g.ApprovedBy, &g.ApprovedAt, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetByID retrieves a group by id. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Group, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM optimization_groups WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get optimization group: %w", err)
	}
	return g, nil
}

// List retrieves groups newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Group, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM optimization_groups`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count optimization groups: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM optimization_groups ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list optimization groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan optimization group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate optimization groups: %w", err)
	}
	return groups, total, nil
}
