package trip

import (
	"errors"
	"testing"
	"time"

	"github.com/tranqh/tripflow/internal/location"
)

func validCreate() CreateTripRequest {
	return CreateTripRequest{
		DepartureLocation: location.HCMOffice,
		Destination:       location.FactoryA,
		DepartureDate:     "2026-03-10",
		DepartureTime:     "08:00",
		ReturnDate:        "2026-03-10",
		ReturnTime:        "17:00",
		VehicleType:       location.Car4Seat,
	}
}

func TestCreateTripRequestValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		mutate  func(*CreateTripRequest)
		wantErr error
	}{
		{"valid", func(r *CreateTripRequest) {}, nil},
		{"unknown departure", func(r *CreateTripRequest) { r.DepartureLocation = "NOWHERE" }, ErrInvalidLocation},
		{"unknown destination", func(r *CreateTripRequest) { r.Destination = "NOWHERE" }, ErrInvalidLocation},
		{"same endpoints", func(r *CreateTripRequest) { r.Destination = r.DepartureLocation }, ErrSameLocation},
		{"unknown vehicle", func(r *CreateTripRequest) { r.VehicleType = "TRUCK" }, ErrInvalidVehicle},
		{"bad date format", func(r *CreateTripRequest) { r.DepartureDate = "10/03/2026" }, ErrInvalidDate},
		{"bad time format", func(r *CreateTripRequest) { r.DepartureTime = "8am" }, ErrInvalidDate},
		{"bad return date", func(r *CreateTripRequest) { r.ReturnDate = "soon" }, ErrInvalidDate},
		{"return before departure", func(r *CreateTripRequest) {
			r.ReturnDate = "2026-03-09"
		}, ErrReturnBeforeGo},
		{"departure in the past", func(r *CreateTripRequest) {
			r.DepartureDate = "2026-02-20"
			r.ReturnDate = "2026-02-20"
		}, ErrDepartureInPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			if err := req.Validate(now); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
