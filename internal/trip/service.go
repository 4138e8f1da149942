package trip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tranqh/tripflow/internal/employee"
	"github.com/tranqh/tripflow/internal/location"
	"github.com/tranqh/tripflow/internal/notify"
	"github.com/tranqh/tripflow/internal/observability"
)

var ErrNotOwner = errors.New("only the trip owner or an admin can do this")

// ApprovalTokens issues and consumes single-use manager approval-link tokens.
// Implemented by the redis-backed store in internal/approval.
type ApprovalTokens interface {
	Issue(ctx context.Context, tripID string) (string, error)
	Consume(ctx context.Context, token string) (string, error)
}

// Config is the slice of deployment configuration the trip service needs.
type Config struct {
	UrgentWindow    time.Duration
	ApprovalLinkTTL time.Duration
	PublicBaseURL   string
}

// Service handles trip lifecycle business logic.
type Service struct {
	repo      *Repository
	employees *employee.Repository
	tokens    ApprovalTokens
	notifier  notify.Notifier
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new trip service.
func NewService(repo *Repository, employees *employee.Repository, tokens ApprovalTokens, notifier notify.Notifier, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		tokens:    tokens,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit registers a new trip. The initial status depends on whether the
// submitter has a manager on file and how soon the departure is; trips that
// need a manager decision get an approval link mailed out.
func (s *Service) Submit(ctx context.Context, userID, userEmail, userName string, req *CreateTripRequest) (*Trip, error) {
	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, err
	}

	cost, err := location.RoundTripCost(req.DepartureLocation, req.Destination, req.VehicleType)
	if err != nil {
		return nil, err
	}

	emp, err := s.employees.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	hasManager := emp != nil && emp.HasManager()

	t := &Trip{
		ID:                uuid.NewString(),
		UserID:            userID,
		UserEmail:         userEmail,
		UserName:          userName,
		DepartureLocation: req.DepartureLocation,
		Destination:       req.Destination,
		DepartureDate:     req.DepartureDate,
		DepartureTime:     req.DepartureTime,
		ReturnDate:        req.ReturnDate,
		ReturnTime:        req.ReturnTime,
		VehicleType:       req.VehicleType,
		EstimatedCost:     &cost,
	}

	departureAt, _ := t.DepartureAt() // validated above
	t.Status = ClassifySubmission(hasManager, departureAt, now, s.cfg.UrgentWindow)

	if t.Status == StatusAutoApproved {
		approver := "system:auto_approval"
		t.ManagerApprovalStatus = ManagerApproved
		t.ApprovedBy = &approver
		t.ApprovedAt = &now
	} else {
		t.ManagerApprovalStatus = ManagerPending
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	observability.TripsSubmittedTotal.WithLabelValues(string(t.Status)).Inc()

	if t.Status.IsAwaitingManager() {
		s.sendApprovalLink(ctx, t, *emp.ManagerEmail)
	}

	return t, nil
}

func (s *Service) sendApprovalLink(ctx context.Context, t *Trip, managerEmail string) {
	token, err := s.tokens.Issue(ctx, t.ID)
	if err != nil {
		// the trip still surfaces on the override worklist after the TTL
		s.logger.Error("failed to issue approval token", "trip_id", t.ID, "err", err)
		return
	}
	s.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventApprovalRequested,
		TripID:    t.ID,
		Recipient: managerEmail,
		Fields: map[string]string{
			"employee":       t.UserName,
			"link_expires":   s.now().Add(s.cfg.ApprovalLinkTTL).Format(time.RFC3339),
			"route":          fmt.Sprintf("%s -> %s", t.DepartureLocation.DisplayName(), t.Destination.DisplayName()),
			"departure":      t.DepartureDate + " " + t.DepartureTime,
			"urgent":         fmt.Sprintf("%t", t.Status == StatusPendingUrgent),
			"approve_link":   fmt.Sprintf("%s/api/v1/trips/approval?token=%s&action=approve", s.cfg.PublicBaseURL, token),
			"reject_link":    fmt.Sprintf("%s/api/v1/trips/approval?token=%s&action=reject", s.cfg.PublicBaseURL, token),
			"estimated_cost": fmt.Sprintf("%.0f", *t.EstimatedCost),
		},
	})
}

// DecideByToken resolves an emailed approval link and applies the decision.
// The token is single-use; consuming it twice reports the link as expired.
func (s *Service) DecideByToken(ctx context.Context, token, action string) (*Trip, error) {
	tripID, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return nil, err
	}

	decidedBy := "manager"
	if t, err := s.repo.GetByID(ctx, tripID); err == nil && t != nil {
		if emp, err := s.employees.GetByID(ctx, t.UserID); err == nil && emp != nil && emp.HasManager() {
			decidedBy = *emp.ManagerEmail
		}
	}

	return s.Decide(ctx, tripID, action, decidedBy)
}

// Decide applies a manager approve/reject to a trip still awaiting one.
// Racing decisions serialize on the row lock; the loser gets
// AlreadyProcessedError with the committed state.
func (s *Service) Decide(ctx context.Context, tripID, action, decidedBy string) (*Trip, error) {
	if action != "approve" && action != "reject" {
		return nil, ErrInvalidAction
	}

	var decided *Trip
	err := s.repo.WithTripLock(ctx, tripID, func(ctx context.Context, tx *sql.Tx, t *Trip) error {
		if t.ManagerApprovalStatus != ManagerPending || !t.Status.IsAwaitingManager() {
			return &AlreadyProcessedError{ApprovalStatus: t.ManagerApprovalStatus, TripStatus: t.Status}
		}

		now := s.now()
		newStatus, approval := StatusApprovedSolo, ManagerApproved
		if action == "reject" {
			newStatus, approval = StatusRejected, ManagerRejected
		}
		if err := s.repo.DecideTx(ctx, tx, t.ID, newStatus, approval, decidedBy, now); err != nil {
			return err
		}

		t.Status = newStatus
		t.ManagerApprovalStatus = approval
		t.ApprovedBy = &decidedBy
		t.ApprovedAt = &now
		decided = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.ManagerDecisionsTotal.WithLabelValues(action).Inc()
	s.notifyDecision(ctx, decided, action)
	return decided, nil
}

func (s *Service) notifyDecision(ctx context.Context, t *Trip, action string) {
	evType := notify.EventTripApproved
	if action == "reject" {
		evType = notify.EventTripRejected
	}
	s.notifier.Publish(ctx, notify.Event{
		Type:      evType,
		TripID:    t.ID,
		Recipient: t.UserEmail,
		Fields: map[string]string{
			"route":     fmt.Sprintf("%s -> %s", t.DepartureLocation.DisplayName(), t.Destination.DisplayName()),
			"departure": t.DepartureDate + " " + t.DepartureTime,
		},
	})
	if err := s.repo.MarkNotified(ctx, t.ID); err != nil {
		s.logger.Warn("failed to mark trip notified", "trip_id", t.ID, "err", err)
	}
}

// Cancel moves a non-terminal trip to cancelled. Allowed for the owner and
// for admins, from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, tripID, callerID string, callerIsAdmin bool) (*Trip, error) {
	var cancelled *Trip
	err := s.repo.WithTripLock(ctx, tripID, func(ctx context.Context, tx *sql.Tx, t *Trip) error {
		if !callerIsAdmin && t.UserID != callerID {
			return ErrNotOwner
		}
		if !t.Status.CanTransitionTo(StatusCancelled) {
			return ErrNotCancellable
		}
		if err := s.repo.CancelTx(ctx, tx, t.ID); err != nil {
			return err
		}
		t.Status = StatusCancelled
		cancelled = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventTripCancelled,
		TripID:    cancelled.ID,
		Recipient: cancelled.UserEmail,
		Fields: map[string]string{
			"route":     fmt.Sprintf("%s -> %s", cancelled.DepartureLocation.DisplayName(), cancelled.Destination.DisplayName()),
			"departure": cancelled.DepartureDate + " " + cancelled.DepartureTime,
		},
	})
	return cancelled, nil
}

// GetByID retrieves a trip.
func (s *Service) GetByID(ctx context.Context, id string) (*Trip, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTripNotFound
	}
	return t, nil
}

// ListForUser retrieves the caller's trips.
func (s *Service) ListForUser(ctx context.Context, userID string, page, perPage int) ([]*Trip, int, error) {
	page, perPage = clampPaging(page, perPage)
	return s.repo.ListByUser(ctx, userID, perPage, (page-1)*perPage)
}

// ListByStatus retrieves trips by status (admin listing).
func (s *Service) ListByStatus(ctx context.Context, status TripStatus, page, perPage int) ([]*Trip, int, error) {
	page, perPage = clampPaging(page, perPage)
	return s.repo.ListByStatus(ctx, status, perPage, (page-1)*perPage)
}

func clampPaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
