package location

import (
	"errors"
	"testing"
)

func TestDistanceIsSymmetric(t *testing.T) {
	for _, a := range All() {
		for _, b := range All() {
			if a == b {
				continue
			}
			forward, errF := Distance(a, b)
			backward, errB := Distance(b, a)
			if (errF == nil) != (errB == nil) {
				t.Errorf("%s<->%s: asymmetric errors %v vs %v", a, b, errF, errB)
				continue
			}
			if forward != backward {
				t.Errorf("%s<->%s: %v km vs %v km", a, b, forward, backward)
			}
		}
	}
}

func TestDistanceErrors(t *testing.T) {
	if _, err := Distance(HCMOffice, HCMOffice); !errors.Is(err, ErrSameLocation) {
		t.Errorf("same location: err = %v", err)
	}
	if _, err := Distance(Code("MOON_BASE"), FactoryA); !errors.Is(err, ErrUnknownLocation) {
		t.Errorf("unknown code: err = %v", err)
	}
	// both valid sites but the fleet does not service the route
	if _, err := Distance(HanoiOffice, FactoryA); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("unserviced route: err = %v", err)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		headcount int
		want      VehicleType
		ok        bool
	}{
		{1, Car4Seat, true},
		{4, Car4Seat, true},
		{5, Car7Seat, true},
		{7, Car7Seat, true},
		{8, Van16Seat, true},
		{16, Van16Seat, true},
		{17, "", false},
	}
	for _, tt := range tests {
		tier, ok := TierFor(tt.headcount)
		if ok != tt.ok {
			t.Errorf("TierFor(%d) ok = %v, want %v", tt.headcount, ok, tt.ok)
			continue
		}
		if ok && tier.Type != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.headcount, tier.Type, tt.want)
		}
	}
}

func TestRoundTripCost(t *testing.T) {
	// 30 km each way in a four-seater at 15000 VND/km
	got, err := RoundTripCost(HCMOffice, FactoryA, Car4Seat)
	if err != nil {
		t.Fatalf("RoundTripCost() error: %v", err)
	}
	if got != 900000 {
		t.Errorf("RoundTripCost() = %v, want 900000", got)
	}

	if _, err := RoundTripCost(HCMOffice, FactoryA, VehicleType("TRUCK")); !errors.Is(err, ErrUnknownVehicle) {
		t.Errorf("unknown vehicle: err = %v", err)
	}
	if _, err := RoundTripCost(HanoiOffice, FactoryA, Car4Seat); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("unserviced route: err = %v", err)
	}
}
