package joinrequest

import (
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle of a join request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// JoinRequest is a request by an employee to take a seat on someone else's
// approved solo trip. At most one pending request may exist per
// (trip, requester) pair.
type JoinRequest struct {
	ID             int64      `json:"id"`
	TripID         string     `json:"trip_id"`
	RequesterID    string     `json:"requester_id"`
	RequesterEmail string     `json:"requester_email"`
	RequesterName  string     `json:"requester_name"`
	Reason         *string    `json:"reason,omitempty"`
	Status         Status     `json:"status"`
	AdminNotes     *string    `json:"admin_notes,omitempty"`
	ResolvedBy     *string    `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateRequest is the submission payload.
type CreateRequest struct {
	TripID string  `json:"trip_id"`
	Reason *string `json:"reason,omitempty"`
}

// ResolveRequest carries the admin notes for approve/reject.
type ResolveRequest struct {
	AdminNotes string `json:"admin_notes"`
}

// Common errors.
var (
	ErrRequestNotFound  = errors.New("join request not found")
	ErrDuplicateRequest = errors.New("a pending join request for this trip already exists")
	ErrOwnTrip          = errors.New("cannot request to join your own trip")
	ErrNotRequester     = errors.New("only the requester can cancel")
	ErrNotesRequired    = errors.New("admin notes are required to reject")
	ErrTripFull         = errors.New("no seat left on the target trip")
)

// AlreadyResolvedError reports a request that is no longer pending.
type AlreadyResolvedError struct {
	Status Status
}

func (e *AlreadyResolvedError) Error() string {
	return "join request already resolved (status: " + string(e.Status) + ")"
}

// NotJoinableError reports a target trip in a state that cannot take riders.
type NotJoinableError struct {
	TripStatus string
}

func (e *NotJoinableError) Error() string {
	return "trip cannot take riders in status " + e.TripStatus
}

// validateNotes enforces the non-empty notes rule on rejection.
func validateNotes(notes string) error {
	if strings.TrimSpace(notes) == "" {
		return ErrNotesRequired
	}
	return nil
}
