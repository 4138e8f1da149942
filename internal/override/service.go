package override

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/tranqh/tripflow/internal/employee"
	"github.com/tranqh/tripflow/internal/notify"
	"github.com/tranqh/tripflow/internal/observability"
	"github.com/tranqh/tripflow/internal/trip"
)

// Service processes admin overrides for trips whose approval link expired or
// whose departure has passed.
type Service struct {
	trips     *trip.Repository
	employees *employee.Repository
	repo      *Repository
	notifier  notify.Notifier
	linkTTL   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new override service.
func NewService(trips *trip.Repository, employees *employee.Repository, repo *Repository, notifier notify.Notifier, linkTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		trips:     trips,
		employees: employees,
		repo:      repo,
		notifier:  notifier,
		linkTTL:   linkTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Process applies one override. Validation runs first; the precondition
// checks, the trip update and the audit entry all happen inside a single
// serializable transaction holding the trip's row lock, so of two racing
// admins exactly one commits and the other observes the committed state via
// AlreadyProcessedError. The owner notification trails the commit and is
// best-effort.
func (s *Service) Process(ctx context.Context, req *Request) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	var result *Result
	var resolved *trip.Trip
	err := s.trips.WithTripLock(ctx, req.TripID, func(ctx context.Context, tx *sql.Tx, t *trip.Trip) error {
		now := s.now()

		ownerActive, err := s.employees.IsActiveTx(ctx, tx, t.UserID)
		if err != nil {
			return err
		}
		if err := Evaluate(t, req.Action, req.ForceOverride, ownerActive, now); err != nil {
			return err
		}

		newStatus, approval := trip.StatusApprovedSolo, trip.ManagerApproved
		if req.Action == ActionReject {
			newStatus, approval = trip.StatusRejected, trip.ManagerRejected
		}

		entry := &LogEntry{
			TripID:         t.ID,
			Action:         req.Action,
			AdminEmail:     req.AdminEmail,
			Note:           req.Reason,
			OriginalStatus: t.Status,
			NewStatus:      newStatus,
			OverrideReason: classify(t, req, now),
			ForceOverride:  req.ForceOverride,
			IPAddress:      req.IPAddress,
			UserAgent:      req.UserAgent,
		}

		if err := s.trips.DecideTx(ctx, tx, t.ID, newStatus, approval, req.AdminEmail, now); err != nil {
			return err
		}
		if err := s.repo.InsertTx(ctx, tx, entry); err != nil {
			return err
		}

		t.Status = newStatus
		t.ManagerApprovalStatus = approval
		resolved = t
		result = &Result{Success: true, NewStatus: newStatus}
		return nil
	})
	if err != nil {
		observability.OverridesTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, err
	}

	observability.OverridesTotal.WithLabelValues("success").Inc()
	s.logger.Info("override processed",
		"trip_id", resolved.ID, "action", req.Action, "admin", req.AdminEmail, "force", req.ForceOverride)

	s.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventOverrideResolved,
		TripID:    resolved.ID,
		Recipient: resolved.UserEmail,
		Fields: map[string]string{
			"action":     string(req.Action),
			"new_status": string(result.NewStatus),
		},
	})

	return result, nil
}

func outcomeLabel(err error) string {
	var (
		processed  *AlreadyProcessedError
		overridden *NotOverridableError
		inactive   *UserInactiveError
	)
	switch {
	case errors.As(err, &processed):
		return "already_processed"
	case errors.As(err, &overridden):
		return "not_overridable"
	case errors.As(err, &inactive):
		return "user_inactive"
	case errors.Is(err, ErrRequiresForce):
		return "requires_force"
	case errors.Is(err, trip.ErrTripNotFound):
		return "not_found"
	}
	return "error"
}

// Worklist lists trips awaiting a manager decision for longer than the
// approval-link lifetime.
func (s *Service) Worklist(ctx context.Context) ([]*trip.Trip, error) {
	return s.trips.PendingWorklist(ctx, s.now().Add(-s.linkTTL))
}

// Log retrieves the audit trail for one trip.
func (s *Service) Log(ctx context.Context, tripID string) ([]*LogEntry, error) {
	return s.repo.ListByTrip(ctx, tripID)
}
