package trip

import (
	"testing"
	"time"
)

func TestClassifySubmission(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	window := 24 * time.Hour

	tests := []struct {
		name       string
		hasManager bool
		departure  time.Time
		want       TripStatus
	}{
		{"no manager on file", false, now.Add(72 * time.Hour), StatusAutoApproved},
		{"no manager even when urgent", false, now.Add(2 * time.Hour), StatusAutoApproved},
		{"departure inside urgent window", true, now.Add(10 * time.Hour), StatusPendingUrgent},
		{"departure just inside window", true, now.Add(24*time.Hour - time.Minute), StatusPendingUrgent},
		{"departure exactly at window edge", true, now.Add(24 * time.Hour), StatusPendingApproval},
		{"departure well ahead", true, now.Add(48 * time.Hour), StatusPendingApproval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySubmission(tt.hasManager, tt.departure, now, window); got != tt.want {
				t.Errorf("ClassifySubmission() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to TripStatus
		want     bool
	}{
		{StatusPendingApproval, StatusApprovedSolo, true},
		{StatusPendingApproval, StatusRejected, true},
		{StatusPendingApproval, StatusExpired, true},
		{StatusPendingApproval, StatusOptimized, false},
		{StatusPendingUrgent, StatusApprovedSolo, true},
		{StatusPendingUrgent, StatusRejected, true},
		{StatusApprovedSolo, StatusOptimized, true},
		{StatusApprovedSolo, StatusRejected, false},
		{StatusAutoApproved, StatusOptimized, true},
		{StatusAutoApproved, StatusApprovedSolo, false},
		{StatusOptimized, StatusApprovedSolo, false},
		{StatusOptimized, StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	all := []TripStatus{
		StatusPendingApproval, StatusPendingUrgent, StatusAutoApproved,
		StatusApprovedSolo, StatusOptimized, StatusRejected, StatusCancelled, StatusExpired,
	}
	for _, from := range []TripStatus{StatusRejected, StatusCancelled, StatusExpired} {
		for _, to := range all {
			if from.CanTransitionTo(to) {
				t.Errorf("terminal state %s allows transition to %s", from, to)
			}
		}
	}
}

func TestNonTerminalStatesCanCancel(t *testing.T) {
	for _, from := range []TripStatus{
		StatusPendingApproval, StatusPendingUrgent, StatusAutoApproved,
		StatusApprovedSolo, StatusOptimized,
	} {
		if !from.CanTransitionTo(StatusCancelled) {
			t.Errorf("%s should allow cancellation", from)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusApprovedSolo.IsOptimizable() || !StatusAutoApproved.IsOptimizable() {
		t.Error("approved_solo and auto_approved should both be optimizable")
	}
	if StatusOptimized.IsOptimizable() {
		t.Error("optimized trips cannot be grouped again")
	}
	if !StatusPendingUrgent.IsAwaitingManager() || StatusAutoApproved.IsAwaitingManager() {
		t.Error("awaiting-manager predicate wrong")
	}
	if TripStatus("bogus").IsValid() {
		t.Error("unknown status reported valid")
	}
}

func TestDepartureAt(t *testing.T) {
	tr := &Trip{DepartureDate: "2026-03-10", DepartureTime: "08:15"}
	got, err := tr.DepartureAt()
	if err != nil {
		t.Fatalf("DepartureAt() error: %v", err)
	}
	want := time.Date(2026, 3, 10, 8, 15, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("DepartureAt() = %v, want %v", got, want)
	}

	tr.DepartureTime = "8am"
	if _, err := tr.DepartureAt(); err == nil {
		t.Error("expected parse error for malformed time")
	}
}

func TestHeadcount(t *testing.T) {
	tr := &Trip{}
	if tr.Headcount() != 1 {
		t.Errorf("owner alone should count 1, got %d", tr.Headcount())
	}
	tr.ExtraRiders = 3
	if tr.Headcount() != 4 {
		t.Errorf("owner plus 3 riders should count 4, got %d", tr.Headcount())
	}
}
