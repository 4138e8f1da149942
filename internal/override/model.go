package override

import (
	"time"

	"github.com/tranqh/tripflow/internal/trip"
)

// Action is the override decision an admin takes in the manager's stead.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	return a == ActionApprove || a == ActionReject
}

// Reason classifies why the manager flow was bypassed; stored on the audit
// entry.
type Reason string

const (
	ReasonExpiredLink   Reason = "EXPIRED_APPROVAL_LINK"
	ReasonForcePastDate Reason = "FORCE_OVERRIDE_PAST_DEPARTURE"
)

// LogEntry is an immutable audit record of one override action. Rows are
// append-only; nothing in the service updates or deletes them.
type LogEntry struct {
	ID             int64           `json:"id"`
	TripID         string          `json:"trip_id"`
	Action         Action          `json:"action_type"`
	AdminEmail     string          `json:"admin_email"`
	Note           string          `json:"reason"`
	OriginalStatus trip.TripStatus `json:"original_status"`
	NewStatus      trip.TripStatus `json:"new_status"`
	OverrideReason Reason          `json:"override_reason"`
	ForceOverride  bool            `json:"force_override"`
	IPAddress      string          `json:"ip_address"`
	UserAgent      string          `json:"user_agent"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Request is one override attempt.
type Request struct {
	TripID        string `json:"tripId"`
	Action        Action `json:"action"`
	Reason        string `json:"reason"`
	ForceOverride bool   `json:"forceOverride"`

	// filled from the request context, not the body
	AdminEmail string `json:"-"`
	IPAddress  string `json:"-"`
	UserAgent  string `json:"-"`
}

// Result is the success payload.
type Result struct {
	Success   bool            `json:"success"`
	NewStatus trip.TripStatus `json:"newStatus"`
}
