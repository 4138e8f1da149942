package trip

import (
	"errors"
	"time"

	"github.com/tranqh/tripflow/internal/location"
)

// CreateTripRequest is the submission payload.
type CreateTripRequest struct {
	DepartureLocation location.Code        `json:"departure_location"`
	Destination       location.Code        `json:"destination"`
	DepartureDate     string               `json:"departure_date"`
	DepartureTime     string               `json:"departure_time"`
	ReturnDate        string               `json:"return_date"`
	ReturnTime        string               `json:"return_time"`
	VehicleType       location.VehicleType `json:"vehicle_type"`
}

var (
	ErrInvalidLocation = errors.New("departure and destination must be valid location codes")
	ErrSameLocation    = errors.New("departure location must differ from destination")
	ErrInvalidVehicle  = errors.New("invalid vehicle type")
	ErrInvalidDate     = errors.New("dates must be YYYY-MM-DD and times HH:MM")
	ErrReturnBeforeGo  = errors.New("return must not be before departure")
	ErrDepartureInPast = errors.New("departure must be in the future")
	ErrInvalidAction   = errors.New("action must be approve or reject")
	ErrNotCancellable  = errors.New("trip is already in a terminal state")
	ErrTripNotFound    = errors.New("trip not found")
	ErrTripNotAwaiting = errors.New("trip is not awaiting manager approval")
)

// Validate checks shape only; manager lookup and persistence happen later.
func (r *CreateTripRequest) Validate(now time.Time) error {
	if !r.DepartureLocation.IsValid() || !r.Destination.IsValid() {
		return ErrInvalidLocation
	}
	if r.DepartureLocation == r.Destination {
		return ErrSameLocation
	}
	if !r.VehicleType.IsValid() {
		return ErrInvalidVehicle
	}
	dep, err := time.ParseInLocation(dateLayout+" "+timeLayout, r.DepartureDate+" "+r.DepartureTime, time.Local)
	if err != nil {
		return ErrInvalidDate
	}
	ret, err := time.ParseInLocation(dateLayout+" "+timeLayout, r.ReturnDate+" "+r.ReturnTime, time.Local)
	if err != nil {
		return ErrInvalidDate
	}
	if ret.Before(dep) {
		return ErrReturnBeforeGo
	}
	if !dep.After(now) {
		return ErrDepartureInPast
	}
	return nil
}

// DecisionRequest is a manager approve/reject payload.
type DecisionRequest struct {
	Action string `json:"action"` // approve | reject
}

// AlreadyProcessedError reports a decision raced by another actor; it carries
// the authoritative state so the caller can re-render instead of retrying.
type AlreadyProcessedError struct {
	ApprovalStatus ManagerApprovalStatus
	TripStatus     TripStatus
}

func (e *AlreadyProcessedError) Error() string {
	return "trip already processed (manager approval status: " + string(e.ApprovalStatus) + ")"
}
