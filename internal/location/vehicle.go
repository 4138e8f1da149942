package location

import "errors"

// VehicleType identifies a fleet vehicle tier.
type VehicleType string

const (
	Car4Seat  VehicleType = "CAR_4"
	Car7Seat  VehicleType = "CAR_7"
	Van16Seat VehicleType = "VAN_16"
)

var ErrUnknownVehicle = errors.New("unknown vehicle type")

// Tier describes the capacity and running cost of one vehicle tier.
type Tier struct {
	Type      VehicleType `json:"type"`
	Capacity  int         `json:"capacity"`
	CostPerKm float64     `json:"cost_per_km"` // VND
}

// tiers is ordered smallest to largest; tier selection walks it in order.
var tiers = []Tier{
	{Type: Car4Seat, Capacity: 4, CostPerKm: 15000},
	{Type: Car7Seat, Capacity: 7, CostPerKm: 20000},
	{Type: Van16Seat, Capacity: 16, CostPerKm: 28000},
}

// Tiers returns all vehicle tiers ordered by capacity.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// IsValid reports whether v is a known vehicle type.
func (v VehicleType) IsValid() bool {
	_, err := TierOf(v)
	return err == nil
}

// TierOf returns the tier definition for a vehicle type.
func TierOf(v VehicleType) (Tier, error) {
	for _, t := range tiers {
		if t.Type == v {
			return t, nil
		}
	}
	return Tier{}, ErrUnknownVehicle
}

// TierFor returns the smallest tier whose capacity fits the given headcount.
func TierFor(headcount int) (Tier, bool) {
	for _, t := range tiers {
		if t.Capacity >= headcount {
			return t, true
		}
	}
	return Tier{}, false
}

// MaxCapacity is the capacity of the largest tier in the fleet.
func MaxCapacity() int {
	return tiers[len(tiers)-1].Capacity
}

// RoundTripCost computes the cost of a return journey on the given route
// using the given vehicle tier.
func RoundTripCost(from, to Code, v VehicleType) (float64, error) {
	d, err := Distance(from, to)
	if err != nil {
		return 0, err
	}
	t, err := TierOf(v)
	if err != nil {
		return 0, err
	}
	return d * 2 * t.CostPerKm, nil
}
