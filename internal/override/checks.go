package override

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tranqh/tripflow/internal/trip"
)

const minReasonLength = 5

var (
	ErrInvalidAction  = errors.New("action must be approve or reject")
	ErrReasonTooShort = fmt.Errorf("reason must be at least %d characters", minReasonLength)
	// ErrRequiresForce is a two-step confirmation, not a terminal failure:
	// the caller re-invokes with forceOverride set after a human confirms.
	ErrRequiresForce = errors.New("departure has passed; set forceOverride to proceed")
)

// AlreadyProcessedError is the optimistic-concurrency signal: the trip was
// resolved by someone else first. Carries the committed state.
type AlreadyProcessedError struct {
	ApprovalStatus trip.ManagerApprovalStatus
	TripStatus     trip.TripStatus
}

func (e *AlreadyProcessedError) Error() string {
	return "trip already processed (manager approval status: " + string(e.ApprovalStatus) + ")"
}

// NotOverridableError reports a trip in a state the override path may not
// touch.
type NotOverridableError struct {
	Status trip.TripStatus
}

func (e *NotOverridableError) Error() string {
	return "trip cannot be overridden in status " + string(e.Status)
}

// UserInactiveError blocks overrides for disabled accounts regardless of the
// force flag.
type UserInactiveError struct {
	UserID string
}

func (e *UserInactiveError) Error() string {
	return "trip owner account is inactive"
}

// ValidateRequest performs the shape checks that run before any transaction
// opens.
func ValidateRequest(req *Request) error {
	if !req.Action.IsValid() {
		return ErrInvalidAction
	}
	if len(strings.TrimSpace(req.Reason)) < minReasonLength {
		return ErrReasonTooShort
	}
	return nil
}

// Evaluate runs the ordered precondition checks against a trip snapshot.
// It is called with the row lock held so the snapshot is authoritative; the
// first failing check wins and each failure mode is a distinct error.
func Evaluate(t *trip.Trip, action Action, force, ownerActive bool, now time.Time) error {
	if t.ManagerApprovalStatus != trip.ManagerPending {
		return &AlreadyProcessedError{ApprovalStatus: t.ManagerApprovalStatus, TripStatus: t.Status}
	}
	if t.Status.IsTerminal() {
		return &NotOverridableError{Status: t.Status}
	}
	if action == ActionApprove && !force {
		if dep, err := t.DepartureAt(); err == nil && dep.Before(now) {
			return ErrRequiresForce
		}
	}
	if !ownerActive {
		return &UserInactiveError{UserID: t.UserID}
	}
	return nil
}

// classify picks the audit reason: a forced approval of a past departure is
// recorded as such, everything else is an expired-link cleanup.
func classify(t *trip.Trip, req *Request, now time.Time) Reason {
	if req.ForceOverride {
		if dep, err := t.DepartureAt(); err == nil && dep.Before(now) {
			return ReasonForcePastDate
		}
	}
	return ReasonExpiredLink
}
