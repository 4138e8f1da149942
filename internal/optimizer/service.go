package optimizer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tranqh/tripflow/internal/notify"
	"github.com/tranqh/tripflow/internal/observability"
	"github.com/tranqh/tripflow/internal/trip"
)

var ErrGroupNotFound = errors.New("optimization group not found")

// NotOptimizableError reports that a member trip changed state between the
// preview and the acceptance; it carries the committed state.
type NotOptimizableError struct {
	TripID string
	Status trip.TripStatus
}

func (e *NotOptimizableError) Error() string {
	return fmt.Sprintf("trip %s is no longer optimizable (status: %s)", e.TripID, e.Status)
}

// Service runs the grouping engine and commits accepted proposals.
type Service struct {
	trips    *trip.Repository
	groups   *Repository
	notifier notify.Notifier
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new optimizer service.
func NewService(trips *trip.Repository, groups *Repository, notifier notify.Notifier, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		trips:    trips,
		groups:   groups,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Preview runs the engine over the current candidate set without writing
// anything. Repeated calls over unchanged data return identical proposals.
func (s *Service) Preview(ctx context.Context) ([]*Proposal, error) {
	start := s.now()
	candidates, err := s.trips.OptimizationCandidates(ctx)
	if err != nil {
		return nil, err
	}

	proposals := Propose(candidates, s.cfg)

	observability.OptimizerRunDuration.Observe(time.Since(start).Seconds())
	observability.OptimizerProposalsTotal.Add(float64(len(proposals)))
	s.logger.Info("optimizer preview", "candidates", len(candidates), "proposals", len(proposals))
	return proposals, nil
}

// Accept commits a proposal: all member trips are row-locked in one
// serializable transaction, re-validated, and the group row plus every
// member update commit together or not at all. The proposal arithmetic is
// recomputed over the locked rows, so a preview gone stale is rejected
// instead of committed with wrong numbers.
func (s *Service) Accept(ctx context.Context, req *AcceptProposalRequest, adminEmail string) (*Group, error) {
	if len(req.TripIDs) < 2 {
		return nil, ErrTooFewMembers
	}

	var group *Group
	var members []*trip.Trip
	err := s.trips.WithTripsLock(ctx, req.TripIDs, func(ctx context.Context, tx *sql.Tx, locked []*trip.Trip) error {
		for _, t := range locked {
			if !t.Status.IsOptimizable() || t.OptimizedGroupID != nil {
				return &NotOptimizableError{TripID: t.ID, Status: t.Status}
			}
		}

		p, err := BuildProposal(locked, s.cfg)
		if err != nil {
			return err
		}

		now := s.now()
		group = &Group{
			ID:                    uuid.NewString(),
			TripIDs:               p.TripIDs,
			DepartureLocation:     p.DepartureLocation,
			Destination:           p.Destination,
			DepartureDate:         p.DepartureDate,
			ProposedDepartureTime: p.ProposedDepartureTime,
			VehicleType:           p.VehicleType,
			EstimatedSavings:      p.EstimatedSavings,
			Status:                GroupApproved,
			CreatedBy:             adminEmail,
			ApprovedBy:            &adminEmail,
			ApprovedAt:            &now,
		}
		if err := s.groups.InsertTx(ctx, tx, group); err != nil {
			return err
		}

		for _, t := range locked {
			u := trip.OptimizedUpdate{
				TripID:           t.ID,
				GroupID:          group.ID,
				NewDepartureTime: p.ProposedDepartureTime,
				VehicleType:      string(p.VehicleType),
				ActualCost:       p.CostPerMember,
			}
			if err := s.trips.MarkOptimizedTx(ctx, tx, u); err != nil {
				return err
			}
		}

		members = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.GroupsAcceptedTotal.Inc()
	observability.EstimatedSavings.Observe(group.EstimatedSavings)
	s.logger.Info("optimization group committed",
		"group_id", group.ID, "members", len(members), "savings", group.EstimatedSavings)

	for _, t := range members {
		s.notifier.Publish(ctx, notify.Event{
			Type:      notify.EventTripOptimized,
			TripID:    t.ID,
			Recipient: t.UserEmail,
			Fields: map[string]string{
				"group_id":       group.ID,
				"new_departure":  group.DepartureDate + " " + group.ProposedDepartureTime,
				"vehicle_type":   string(group.VehicleType),
				"group_savings":  fmt.Sprintf("%.0f", group.EstimatedSavings),
				"your_cost":      fmt.Sprintf("%.0f", *t.EstimatedCost), // pre-optimization estimate for comparison
			},
		})
	}

	return group, nil
}

// GetGroup retrieves a committed group.
func (s *Service) GetGroup(ctx context.Context, id string) (*Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// ListGroups retrieves committed groups.
func (s *Service) ListGroups(ctx context.Context, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.groups.List(ctx, perPage, (page-1)*perPage)
}
