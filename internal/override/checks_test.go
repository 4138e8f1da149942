package override

import (
	"errors"
	"testing"
	"time"

	"github.com/tranqh/tripflow/internal/trip"
)

func pendingTrip(departure time.Time) *trip.Trip {
	return &trip.Trip{
		ID:                    "t1",
		UserID:                "u1",
		DepartureDate:         departure.Format("2006-01-02"),
		DepartureTime:         departure.Format("15:04"),
		Status:                trip.StatusPendingApproval,
		ManagerApprovalStatus: trip.ManagerPending,
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"valid approve", Request{Action: ActionApprove, Reason: "manager link expired"}, nil},
		{"valid reject", Request{Action: ActionReject, Reason: "duplicate trip"}, nil},
		{"unknown action", Request{Action: "escalate", Reason: "long enough"}, ErrInvalidAction},
		{"reason too short", Request{Action: ActionApprove, Reason: "ok"}, ErrReasonTooShort},
		{"reason only whitespace", Request{Action: ActionApprove, Reason: "        "}, ErrReasonTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateRequest(&tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRequest() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvaluateAlreadyProcessedWinsFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	tr := pendingTrip(now.Add(-time.Hour))
	// resolved and terminal at once: the concurrency signal must win
	tr.ManagerApprovalStatus = trip.ManagerRejected
	tr.Status = trip.StatusRejected

	err := Evaluate(tr, ActionApprove, false, true, now)
	var already *AlreadyProcessedError
	if !errors.As(err, &already) {
		t.Fatalf("err = %v, want AlreadyProcessedError", err)
	}
	if already.ApprovalStatus != trip.ManagerRejected || already.TripStatus != trip.StatusRejected {
		t.Errorf("error carries %+v, want committed state", already)
	}
}

func TestEvaluateNotOverridable(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	tr := pendingTrip(now.Add(time.Hour))
	tr.Status = trip.StatusCancelled // approval still pending, cancelled by owner

	err := Evaluate(tr, ActionApprove, false, true, now)
	var notOverridable *NotOverridableError
	if !errors.As(err, &notOverridable) {
		t.Fatalf("err = %v, want NotOverridableError", err)
	}
	if notOverridable.Status != trip.StatusCancelled {
		t.Errorf("error carries status %s, want cancelled", notOverridable.Status)
	}
}

func TestEvaluatePastDepartureNeedsForce(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	t.Run("approve without force", func(t *testing.T) {
		err := Evaluate(pendingTrip(now.Add(-2*time.Hour)), ActionApprove, false, true, now)
		if !errors.Is(err, ErrRequiresForce) {
			t.Errorf("err = %v, want ErrRequiresForce", err)
		}
	})

	t.Run("approve with force", func(t *testing.T) {
		if err := Evaluate(pendingTrip(now.Add(-2*time.Hour)), ActionApprove, true, true, now); err != nil {
			t.Errorf("forced approve should pass, got %v", err)
		}
	})

	t.Run("reject skips the force gate", func(t *testing.T) {
		if err := Evaluate(pendingTrip(now.Add(-2*time.Hour)), ActionReject, false, true, now); err != nil {
			t.Errorf("reject of a past departure should pass, got %v", err)
		}
	})

	t.Run("future departure needs no force", func(t *testing.T) {
		if err := Evaluate(pendingTrip(now.Add(2*time.Hour)), ActionApprove, false, true, now); err != nil {
			t.Errorf("future approve should pass, got %v", err)
		}
	})
}

func TestEvaluateInactiveOwnerBlocksEvenWithForce(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	err := Evaluate(pendingTrip(now.Add(-time.Hour)), ActionApprove, true, false, now)
	var inactive *UserInactiveError
	if !errors.As(err, &inactive) {
		t.Fatalf("err = %v, want UserInactiveError", err)
	}
	if inactive.UserID != "u1" {
		t.Errorf("error carries user %s, want u1", inactive.UserID)
	}
}

func TestClassifyAuditReason(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name      string
		departure time.Time
		force     bool
		want      Reason
	}{
		{"forced past departure", now.Add(-time.Hour), true, ReasonForcePastDate},
		{"forced future departure", now.Add(time.Hour), true, ReasonExpiredLink},
		{"unforced past departure", now.Add(-time.Hour), false, ReasonExpiredLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(pendingTrip(tt.departure), &Request{ForceOverride: tt.force}, now)
			if got != tt.want {
				t.Errorf("classify() = %s, want %s", got, tt.want)
			}
		})
	}
}
