package trip

import (
	"time"

	"github.com/tranqh/tripflow/internal/location"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	StatusPendingApproval TripStatus = "pending_approval"
	StatusPendingUrgent   TripStatus = "pending_urgent"
	StatusAutoApproved    TripStatus = "auto_approved"
	StatusApprovedSolo    TripStatus = "approved_solo"
	StatusOptimized       TripStatus = "optimized"
	StatusRejected        TripStatus = "rejected"
	StatusCancelled       TripStatus = "cancelled"
	StatusExpired         TripStatus = "expired"
)

// IsValid reports whether s is part of the closed status vocabulary.
func (s TripStatus) IsValid() bool {
	switch s {
	case StatusPendingApproval, StatusPendingUrgent, StatusAutoApproved,
		StatusApprovedSolo, StatusOptimized, StatusRejected, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s TripStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusExpired
}

// IsAwaitingManager reports whether the trip still needs a manager decision.
func (s TripStatus) IsAwaitingManager() bool {
	return s == StatusPendingApproval || s == StatusPendingUrgent
}

// IsOptimizable reports whether the trip can enter an optimization group.
func (s TripStatus) IsOptimizable() bool {
	return s == StatusApprovedSolo || s == StatusAutoApproved
}

// transitions is the authoritative edge set of the lifecycle state machine.
// Cancellation from any non-terminal state is covered by explicit edges.
var transitions = map[TripStatus][]TripStatus{
	StatusPendingApproval: {StatusApprovedSolo, StatusRejected, StatusCancelled, StatusExpired},
	StatusPendingUrgent:   {StatusApprovedSolo, StatusRejected, StatusCancelled, StatusExpired},
	StatusAutoApproved:    {StatusOptimized, StatusCancelled},
	StatusApprovedSolo:    {StatusOptimized, StatusCancelled},
	StatusOptimized:       {StatusCancelled},
}

// CanTransitionTo reports whether the edge s -> target exists.
func (s TripStatus) CanTransitionTo(target TripStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ManagerApprovalStatus tracks the manager decision, separate from the trip
// lifecycle status. It only ever moves pending -> approved or rejected; an
// admin override records the bypass in the audit log instead of rewinding it.
type ManagerApprovalStatus string

const (
	ManagerPending  ManagerApprovalStatus = "pending"
	ManagerApproved ManagerApprovalStatus = "approved"
	ManagerRejected ManagerApprovalStatus = "rejected"
)

// Trip is the central entity.
type Trip struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`

	DepartureLocation location.Code `json:"departure_location"`
	Destination       location.Code `json:"destination"`
	DepartureDate     string        `json:"departure_date"` // 2006-01-02
	DepartureTime     string        `json:"departure_time"` // 15:04
	ReturnDate        string        `json:"return_date"`
	ReturnTime        string        `json:"return_time"`

	VehicleType   location.VehicleType `json:"vehicle_type"`
	EstimatedCost *float64             `json:"estimated_cost,omitempty"`
	ActualCost    *float64             `json:"actual_cost,omitempty"`

	Status                TripStatus            `json:"status"`
	ManagerApprovalStatus ManagerApprovalStatus `json:"manager_approval_status"`
	ApprovedBy            *string               `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time            `json:"approved_at,omitempty"`
	OptimizedGroupID      *string               `json:"optimized_group_id,omitempty"`
	OriginalDepartureTime *string               `json:"original_departure_time,omitempty"`
	ExtraRiders           int                   `json:"extra_riders"`
	Notified              bool                  `json:"notified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// DepartureAt combines the departure date and time fields.
func (t *Trip) DepartureAt() (time.Time, error) {
	return time.ParseInLocation(dateLayout+" "+timeLayout, t.DepartureDate+" "+t.DepartureTime, time.Local)
}

// Headcount is the number of seats the trip occupies: the owner plus any
// riders added through approved join requests.
func (t *Trip) Headcount() int {
	return 1 + t.ExtraRiders
}

// ClassifySubmission decides the initial status of a freshly submitted trip:
// no manager on file auto-approves it, a departure inside the urgent window
// flags it urgent, everything else waits for the manager.
func ClassifySubmission(hasManager bool, departureAt, now time.Time, urgentWindow time.Duration) TripStatus {
	if !hasManager {
		return StatusAutoApproved
	}
	if departureAt.Sub(now) < urgentWindow {
		return StatusPendingUrgent
	}
	return StatusPendingApproval
}
