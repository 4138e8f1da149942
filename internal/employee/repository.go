package employee

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository reads the employee directory.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new employee repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves an employee by id. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Employee, error) {
	query := `
		SELECT id, email, name, manager_email, active, location_id, created_at
		FROM employees
		WHERE id = $1
	`

	e := &Employee{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.Email,
		&e.Name,
		&e.ManagerEmail,
		&e.Active,
		&e.LocationID,
		&e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

// IsActiveTx checks the active flag inside an open transaction, so the check
// participates in the same snapshot as the row-locked trip read.
func (r *Repository) IsActiveTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var active bool
	err := tx.QueryRowContext(ctx, `SELECT active FROM employees WHERE id = $1`, id).Scan(&active)
	if err != nil {
		if err == sql.ErrNoRows {
			// unknown owner counts as inactive
			return false, nil
		}
		return false, fmt.Errorf("failed to check employee status: %w", err)
	}
	return active, nil
}
