// Package notify is the boundary to the email/notification collaborator.
// Publishes are fire-and-forget: failures are logged and counted, never
// propagated back into the transaction that triggered them.
package notify

import (
	"context"
	"time"
)

// EventType identifies the notification template to render downstream.
type EventType string

const (
	EventApprovalRequested EventType = "APPROVAL_REQUESTED"
	EventTripApproved      EventType = "TRIP_APPROVED"
	EventTripRejected      EventType = "TRIP_REJECTED"
	EventTripCancelled     EventType = "TRIP_CANCELLED"
	EventTripOptimized     EventType = "TRIP_OPTIMIZED"
	EventOverrideResolved  EventType = "OVERRIDE_RESOLVED"
)

// Event is one notification to deliver. Fields carries template variables
// (new departure time, vehicle type, savings and the like).
type Event struct {
	Type      EventType         `json:"type"`
	TripID    string            `json:"trip_id"`
	Recipient string            `json:"recipient"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Notifier delivers events best-effort.
type Notifier interface {
	Publish(ctx context.Context, ev Event)
}
