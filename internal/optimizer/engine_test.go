package optimizer

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/tranqh/tripflow/internal/location"
	"github.com/tranqh/tripflow/internal/trip"
)

var testCfg = Config{MaxWait: 30 * time.Minute, MinSavingsPercent: 15}

func mkTrip(id string, depTime string, cost float64, created time.Time) *trip.Trip {
	return &trip.Trip{
		ID:                id,
		UserID:            "u-" + id,
		UserEmail:         id + "@example.com",
		DepartureLocation: location.HCMOffice,
		Destination:       location.FactoryA,
		DepartureDate:     "2026-03-10",
		DepartureTime:     depTime,
		ReturnDate:        "2026-03-10",
		ReturnTime:        "17:00",
		VehicleType:       location.Car4Seat,
		EstimatedCost:     &cost,
		Status:            trip.StatusApprovedSolo,
		CreatedAt:         created,
	}
}

func TestProposeCombinesSameRouteWithinWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	trips := []*trip.Trip{
		mkTrip("a", "08:00", 500000, base),
		mkTrip("b", "08:15", 500000, base.Add(time.Minute)),
		mkTrip("c", "08:40", 500000, base.Add(2*time.Minute)),
	}

	proposals := Propose(trips, testCfg)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}

	p := proposals[0]
	if got := p.TripIDs; !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected members: %v", got)
	}
	if p.VehicleType != location.Car4Seat {
		t.Errorf("expected CAR_4, got %s", p.VehicleType)
	}
	// 30 km * 2 * 15000 = 900000 shared, vs 1500000 solo
	if p.GroupCost != 900000 {
		t.Errorf("group cost = %v, want 900000", p.GroupCost)
	}
	if p.EstimatedSavings != 600000 {
		t.Errorf("savings = %v, want 600000", p.EstimatedSavings)
	}
	if p.SavingsPercent != 40 {
		t.Errorf("savings percent = %v, want 40", p.SavingsPercent)
	}
	if p.CostPerMember != 300000 {
		t.Errorf("cost per member = %v, want 300000", p.CostPerMember)
	}
	// anchor 08:00 recentred to the midpoint of the 40 minute span
	if p.ProposedDepartureTime != "08:20" {
		t.Errorf("proposed time = %s, want 08:20", p.ProposedDepartureTime)
	}
}

func TestProposeSkipsBelowSavingsThreshold(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	// two members: 1000000 solo vs 900000 shared is only 10%
	trips := []*trip.Trip{
		mkTrip("a", "08:00", 500000, base),
		mkTrip("b", "08:15", 500000, base),
	}

	if proposals := Propose(trips, testCfg); len(proposals) != 0 {
		t.Fatalf("expected no proposals, got %d", len(proposals))
	}
}

func TestProposeDeterministic(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	build := func(order []int) []*trip.Trip {
		all := []*trip.Trip{
			mkTrip("a", "08:00", 500000, base),
			mkTrip("b", "08:15", 500000, base.Add(time.Minute)),
			mkTrip("c", "08:40", 500000, base.Add(2*time.Minute)),
			mkTrip("d", "13:00", 600000, base.Add(3*time.Minute)),
			mkTrip("e", "13:10", 600000, base.Add(4*time.Minute)),
			mkTrip("f", "13:20", 600000, base.Add(5*time.Minute)),
		}
		out := make([]*trip.Trip, len(all))
		for i, idx := range order {
			out[i] = all[idx]
		}
		return out
	}

	first := Propose(build([]int{0, 1, 2, 3, 4, 5}), testCfg)
	second := Propose(build([]int{5, 3, 1, 4, 0, 2}), testCfg)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input set produced different proposals:\n%+v\n%+v", first, second)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 proposals, got %d", len(first))
	}
	// ordered by descending savings: the afternoon bucket saves more
	if first[0].EstimatedSavings < first[1].EstimatedSavings {
		t.Errorf("proposals not ordered by descending savings")
	}
}

func TestProposeCapacityAndRouteInvariants(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	var trips []*trip.Trip
	// 18 identical trips: 16 fill the van, the 2 left over miss the
	// savings threshold on their own
	for i := 0; i < 18; i++ {
		trips = append(trips, mkTrip(fmt.Sprintf("t%02d", i), "08:00", 500000, base.Add(time.Duration(i)*time.Second)))
	}
	other := mkTrip("other", "08:00", 500000, base)
	other.Destination = location.FactoryB
	trips = append(trips, other)

	proposals := Propose(trips, testCfg)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}

	p := proposals[0]
	if len(p.TripIDs) != 16 || p.VehicleType != location.Van16Seat {
		t.Fatalf("expected 16 members on VAN_16, got %d on %s", len(p.TripIDs), p.VehicleType)
	}
	tier, _ := location.TierOf(p.VehicleType)
	if len(p.TripIDs) > tier.Capacity {
		t.Errorf("members %d exceed capacity %d", len(p.TripIDs), tier.Capacity)
	}
	for _, id := range p.TripIDs {
		if id == "other" {
			t.Errorf("proposal mixed routes")
		}
	}
	if p.EstimatedSavings <= 0 {
		t.Errorf("non-positive savings emitted: %v", p.EstimatedSavings)
	}
}

func TestProposeCountsRidersAgainstCapacity(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	a := mkTrip("a", "08:00", 500000, base)
	a.ExtraRiders = 2 // three seats already taken
	trips := []*trip.Trip{
		a,
		mkTrip("b", "08:10", 500000, base),
		mkTrip("c", "08:20", 500000, base),
	}

	proposals := Propose(trips, testCfg)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	// five heads need the seven-seater
	if proposals[0].VehicleType != location.Car7Seat {
		t.Errorf("expected CAR_7, got %s", proposals[0].VehicleType)
	}
}

func TestProposeExcludesTripsOutsideWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	trips := []*trip.Trip{
		mkTrip("a", "08:00", 500000, base),
		mkTrip("b", "08:15", 500000, base),
		mkTrip("c", "09:05", 500000, base), // 65 min past the anchor
	}

	proposals := Propose(trips, testCfg)
	// {a,b} alone is only a 10% saving, and c is a singleton
	if len(proposals) != 0 {
		t.Fatalf("expected no proposals, got %d", len(proposals))
	}
}

func TestProposeSkipsTripsWithoutCost(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	noCost := mkTrip("nc", "08:05", 0, base)
	noCost.EstimatedCost = nil
	trips := []*trip.Trip{
		mkTrip("a", "08:00", 500000, base),
		noCost,
	}

	if proposals := Propose(trips, testCfg); len(proposals) != 0 {
		t.Fatalf("costless trip should not form a pair, got %d proposals", len(proposals))
	}
}

func TestProposeTieBreaksBySubmissionTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	late := mkTrip("late", "08:00", 600000, base.Add(time.Hour))
	early := mkTrip("early", "08:00", 600000, base)
	third := mkTrip("third", "08:10", 600000, base.Add(2*time.Hour))

	proposals := Propose([]*trip.Trip{late, early, third}, testCfg)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	want := []string{"early", "late", "third"}
	if !reflect.DeepEqual(proposals[0].TripIDs, want) {
		t.Errorf("placement order = %v, want %v", proposals[0].TripIDs, want)
	}
}

func TestBuildProposalErrors(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	t.Run("too few members", func(t *testing.T) {
		_, err := BuildProposal([]*trip.Trip{mkTrip("a", "08:00", 500000, base)}, testCfg)
		if !errors.Is(err, ErrTooFewMembers) {
			t.Errorf("err = %v, want ErrTooFewMembers", err)
		}
	})

	t.Run("route mismatch", func(t *testing.T) {
		b := mkTrip("b", "08:10", 500000, base)
		b.Destination = location.FactoryB
		_, err := BuildProposal([]*trip.Trip{mkTrip("a", "08:00", 500000, base), b}, testCfg)
		if !errors.Is(err, ErrRouteMismatch) {
			t.Errorf("err = %v, want ErrRouteMismatch", err)
		}
	})

	t.Run("wait exceeded", func(t *testing.T) {
		_, err := BuildProposal([]*trip.Trip{
			mkTrip("a", "08:00", 900000, base),
			mkTrip("b", "09:10", 900000, base),
		}, testCfg)
		if !errors.Is(err, ErrWaitExceeded) {
			t.Errorf("err = %v, want ErrWaitExceeded", err)
		}
	})

	t.Run("over capacity", func(t *testing.T) {
		a := mkTrip("a", "08:00", 500000, base)
		a.ExtraRiders = 15
		_, err := BuildProposal([]*trip.Trip{a, mkTrip("b", "08:10", 500000, base)}, testCfg)
		if !errors.Is(err, ErrOverCapacity) {
			t.Errorf("err = %v, want ErrOverCapacity", err)
		}
	})

	t.Run("below threshold", func(t *testing.T) {
		_, err := BuildProposal([]*trip.Trip{
			mkTrip("a", "08:00", 500000, base),
			mkTrip("b", "08:10", 500000, base),
		}, testCfg)
		if !errors.Is(err, ErrBelowThreshold) {
			t.Errorf("err = %v, want ErrBelowThreshold", err)
		}
	})

	t.Run("missing cost", func(t *testing.T) {
		b := mkTrip("b", "08:10", 0, base)
		b.EstimatedCost = nil
		_, err := BuildProposal([]*trip.Trip{mkTrip("a", "08:00", 500000, base), b}, testCfg)
		if !errors.Is(err, ErrMissingCost) {
			t.Errorf("err = %v, want ErrMissingCost", err)
		}
	})
}
