package location

import "errors"

// Code identifies a site in the closed set of company locations.
type Code string

const (
	HCMOffice    Code = "HCM_OFFICE"
	HanoiOffice  Code = "HANOI_OFFICE"
	DanangOffice Code = "DANANG_OFFICE"
	FactoryA     Code = "FACTORY_A"
	FactoryB     Code = "FACTORY_B"
	PortCatLai   Code = "PORT_CAT_LAI"
)

var (
	ErrUnknownLocation = errors.New("unknown location code")
	ErrUnknownRoute    = errors.New("no distance on record for route")
	ErrSameLocation    = errors.New("departure and destination must differ")
)

// All returns every registered location code in a fixed order.
func All() []Code {
	return []Code{HCMOffice, HanoiOffice, DanangOffice, FactoryA, FactoryB, PortCatLai}
}

var names = map[Code]string{
	HCMOffice:    "Ho Chi Minh City Office",
	HanoiOffice:  "Hanoi Office",
	DanangOffice: "Da Nang Office",
	FactoryA:     "Factory A (Binh Duong)",
	FactoryB:     "Factory B (Long An)",
	PortCatLai:   "Cat Lai Port",
}

// IsValid reports whether c is part of the closed location set.
func (c Code) IsValid() bool {
	_, ok := names[c]
	return ok
}

// DisplayName returns the human-readable name for a location code.
func (c Code) DisplayName() string {
	if n, ok := names[c]; ok {
		return n
	}
	return string(c)
}

type pair struct {
	a, b Code
}

func key(a, b Code) pair {
	// distances are symmetric, store under a canonical ordering
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// distanceKm is the static one-way distance table. Routes not listed here are
// not serviced by the company fleet.
var distanceKm = map[pair]float64{
	key(HCMOffice, FactoryA):       30,
	key(HCMOffice, FactoryB):       45,
	key(HCMOffice, PortCatLai):     18,
	key(HCMOffice, DanangOffice):   860,
	key(HanoiOffice, DanangOffice): 770,
	key(FactoryA, FactoryB):        52,
	key(FactoryA, PortCatLai):      38,
	key(FactoryB, PortCatLai):      55,
}

// Distance returns the one-way distance in kilometres between two locations.
func Distance(from, to Code) (float64, error) {
	if !from.IsValid() || !to.IsValid() {
		return 0, ErrUnknownLocation
	}
	if from == to {
		return 0, ErrSameLocation
	}
	d, ok := distanceKm[key(from, to)]
	if !ok {
		return 0, ErrUnknownRoute
	}
	return d, nil
}
