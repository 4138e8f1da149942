package optimizer

import (
	"time"

	"github.com/tranqh/tripflow/internal/location"
)

// GroupStatus is the lifecycle of an optimization group.
type GroupStatus string

const (
	GroupProposed GroupStatus = "proposed"
	GroupApproved GroupStatus = "approved"
	GroupRejected GroupStatus = "rejected"
)

// Group is a committed combination of trips sharing one vehicle. Membership
// is written once at approval time and is read-only afterwards.
type Group struct {
	ID                    string               `json:"id"`
	TripIDs               []string             `json:"trip_ids"`
	DepartureLocation     location.Code        `json:"departure_location"`
	Destination           location.Code        `json:"destination"`
	DepartureDate         string               `json:"departure_date"`
	ProposedDepartureTime string               `json:"proposed_departure_time"`
	VehicleType           location.VehicleType `json:"vehicle_type"`
	EstimatedSavings      float64              `json:"estimated_savings"`
	Status                GroupStatus          `json:"status"`
	CreatedBy             string               `json:"created_by"`
	ApprovedBy            *string              `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time           `json:"approved_at,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
}

// AcceptProposalRequest commits one proposal; accepting is all-or-nothing
// for the listed member set.
type AcceptProposalRequest struct {
	TripIDs []string `json:"trip_ids"`
}
