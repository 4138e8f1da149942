package employee

import "time"

// Employee is a read-only view of the HR directory. The directory itself is
// synced from the identity provider by a separate process; this service only
// reads manager links and the active flag.
type Employee struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ManagerEmail *string   `json:"manager_email,omitempty"`
	Active       bool      `json:"active"`
	LocationID   *string   `json:"location_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasManager reports whether a manager is on file for approval routing.
func (e *Employee) HasManager() bool {
	return e.ManagerEmail != nil && *e.ManagerEmail != ""
}
