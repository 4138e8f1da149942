package joinrequest

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/tranqh/tripflow/internal/location"
	"github.com/tranqh/tripflow/internal/notify"
	"github.com/tranqh/tripflow/internal/trip"
)

// Service handles join request business logic.
type Service struct {
	repo     *Repository
	trips    *trip.Repository
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new join request service.
func NewService(repo *Repository, trips *trip.Repository, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		trips:    trips,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create files a pending request against an approved solo trip. Duplicate
// pending requests for the same pair are refused by the unique index.
func (s *Service) Create(ctx context.Context, requesterID, requesterEmail, requesterName string, req *CreateRequest) (*JoinRequest, error) {
	t, err := s.trips.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, trip.ErrTripNotFound
	}
	if t.UserID == requesterID {
		return nil, ErrOwnTrip
	}
	if !t.Status.IsOptimizable() {
		return nil, &NotJoinableError{TripStatus: string(t.Status)}
	}

	jr := &JoinRequest{
		TripID:         req.TripID,
		RequesterID:    requesterID,
		RequesterEmail: requesterEmail,
		RequesterName:  requesterName,
		Reason:         req.Reason,
		Status:         StatusPending,
	}
	if err := s.repo.Create(ctx, jr); err != nil {
		return nil, err
	}
	return jr, nil
}

// Approve grants the seat: the target trip is row-locked, re-checked for
// state and capacity, and the rider count bump commits together with the
// request resolution.
func (s *Service) Approve(ctx context.Context, requestID int64, adminNotes, adminEmail string) (*JoinRequest, error) {
	jr, err := s.getPending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	err = s.trips.WithTripLock(ctx, jr.TripID, func(ctx context.Context, tx *sql.Tx, t *trip.Trip) error {
		if !t.Status.IsOptimizable() {
			return &NotJoinableError{TripStatus: string(t.Status)}
		}
		tier, err := location.TierOf(t.VehicleType)
		if err != nil {
			return err
		}
		if t.Headcount()+1 > tier.Capacity {
			return ErrTripFull
		}

		now := s.now()
		var notes *string
		if adminNotes != "" {
			notes = &adminNotes
		}
		ok, err := s.repo.ResolvePendingTx(ctx, tx, requestID, StatusApproved, notes, adminEmail, now)
		if err != nil {
			return err
		}
		if !ok {
			// re-read for the authoritative status
			current, err := s.repo.GetByID(ctx, requestID)
			if err != nil || current == nil {
				return ErrRequestNotFound
			}
			return &AlreadyResolvedError{Status: current.Status}
		}

		return s.trips.AddRiderTx(ctx, tx, t.ID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventTripApproved,
		TripID:    jr.TripID,
		Recipient: jr.RequesterEmail,
		Fields:    map[string]string{"join_request": "approved"},
	})

	return s.GetByID(ctx, requestID)
}

// Reject declines the request; admin notes are mandatory and the target
// trip is left untouched.
func (s *Service) Reject(ctx context.Context, requestID int64, adminNotes, adminEmail string) (*JoinRequest, error) {
	if err := validateNotes(adminNotes); err != nil {
		return nil, err
	}
	jr, err := s.getPending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.ResolvePending(ctx, requestID, StatusRejected, &adminNotes, adminEmail, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, requestID)
		if err != nil || current == nil {
			return nil, ErrRequestNotFound
		}
		return nil, &AlreadyResolvedError{Status: current.Status}
	}

	s.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventTripRejected,
		TripID:    jr.TripID,
		Recipient: jr.RequesterEmail,
		Fields:    map[string]string{"join_request": "rejected", "notes": adminNotes},
	})

	return s.GetByID(ctx, requestID)
}

// Cancel withdraws the requester's own pending request.
func (s *Service) Cancel(ctx context.Context, requestID int64, requesterID string) (*JoinRequest, error) {
	jr, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if jr.RequesterID != requesterID {
		return nil, ErrNotRequester
	}
	if jr.Status != StatusPending {
		return nil, &AlreadyResolvedError{Status: jr.Status}
	}

	ok, err := s.repo.ResolvePending(ctx, requestID, StatusCancelled, nil, requesterID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, requestID)
		if err != nil || current == nil {
			return nil, ErrRequestNotFound
		}
		return nil, &AlreadyResolvedError{Status: current.Status}
	}

	return s.GetByID(ctx, requestID)
}

// GetByID retrieves a join request.
func (s *Service) GetByID(ctx context.Context, id int64) (*JoinRequest, error) {
	jr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if jr == nil {
		return nil, ErrRequestNotFound
	}
	return jr, nil
}

// ListByTrip retrieves all requests for a trip (admin view).
func (s *Service) ListByTrip(ctx context.Context, tripID string) ([]*JoinRequest, error) {
	return s.repo.ListByTrip(ctx, tripID)
}

func (s *Service) getPending(ctx context.Context, id int64) (*JoinRequest, error) {
	jr, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if jr.Status != StatusPending {
		return nil, &AlreadyResolvedError{Status: jr.Status}
	}
	return jr, nil
}
