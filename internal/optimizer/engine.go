package optimizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tranqh/tripflow/internal/location"
	"github.com/tranqh/tripflow/internal/trip"
)

// Config carries the grouping thresholds, injected at construction time.
type Config struct {
	// MaxWait bounds how far any member's departure may be shifted from
	// their requested time.
	MaxWait time.Duration
	// MinSavingsPercent is the minimum savings relative to the solo cost
	// sum before a proposal is worth surfacing.
	MinSavingsPercent float64
}

// Proposal is one savings-positive combination of trips sharing a vehicle.
type Proposal struct {
	TripIDs               []string             `json:"trip_ids"`
	DepartureLocation     location.Code        `json:"departure_location"`
	Destination           location.Code        `json:"destination"`
	DepartureDate         string               `json:"departure_date"`
	ProposedDepartureTime string               `json:"proposed_departure_time"`
	VehicleType           location.VehicleType `json:"vehicle_type"`
	GroupCost             float64              `json:"group_cost"`
	SoloCostSum           float64              `json:"solo_cost_sum"`
	EstimatedSavings      float64              `json:"estimated_savings"`
	SavingsPercent        float64              `json:"savings_percent"`
	CostPerMember         float64              `json:"cost_per_member"`
}

var (
	ErrTooFewMembers  = errors.New("a group needs at least two trips")
	ErrRouteMismatch  = errors.New("all members must share route and departure date")
	ErrOverCapacity   = errors.New("headcount exceeds the largest vehicle tier")
	ErrWaitExceeded   = errors.New("time shift would exceed the configured max wait")
	ErrBelowThreshold = errors.New("savings below the configured minimum")
	ErrMissingCost    = errors.New("member has no estimated cost")
)

const clockLayout = "15:04"

// candidate pairs a trip with its parsed departure instant.
type candidate struct {
	t   *trip.Trip
	dep time.Time
}

// Propose partitions candidates by route and date, clusters each bucket
// greedily inside the wait window, and emits savings-positive proposals
// ordered by descending savings. The same input always yields the same
// proposals: ordering ties are broken by creation time, then id.
func Propose(candidates []*trip.Trip, cfg Config) []*Proposal {
	buckets := make(map[string][]candidate)
	var keys []string
	for _, t := range candidates {
		if !t.Status.IsOptimizable() || t.OptimizedGroupID != nil {
			continue
		}
		// Trips without an estimated cost would poison the savings sum,
		// so they are skipped from clustering entirely.
		if t.EstimatedCost == nil {
			continue
		}
		dep, err := t.DepartureAt()
		if err != nil {
			continue
		}
		if _, err := location.Distance(t.DepartureLocation, t.Destination); err != nil {
			continue
		}
		k := string(t.DepartureLocation) + "|" + string(t.Destination) + "|" + t.DepartureDate
		if _, seen := buckets[k]; !seen {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], candidate{t: t, dep: dep})
	}
	sort.Strings(keys)

	var proposals []*Proposal
	for _, k := range keys {
		bucket := buckets[k]
		sortCandidates(bucket)
		for _, cluster := range clusterBucket(bucket, cfg.MaxWait) {
			if len(cluster) < 2 {
				continue
			}
			members := make([]*trip.Trip, len(cluster))
			for i, c := range cluster {
				members[i] = c.t
			}
			p, err := BuildProposal(members, cfg)
			if err != nil {
				continue
			}
			proposals = append(proposals, p)
		}
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		if proposals[i].EstimatedSavings != proposals[j].EstimatedSavings {
			return proposals[i].EstimatedSavings > proposals[j].EstimatedSavings
		}
		return proposals[i].TripIDs[0] < proposals[j].TripIDs[0]
	})
	return proposals
}

func sortCandidates(cs []candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if !cs[i].dep.Equal(cs[j].dep) {
			return cs[i].dep.Before(cs[j].dep)
		}
		// earliest submission wins placement order
		if !cs[i].t.CreatedAt.Equal(cs[j].t.CreatedAt) {
			return cs[i].t.CreatedAt.Before(cs[j].t.CreatedAt)
		}
		return cs[i].t.ID < cs[j].t.ID
	})
}

// clusterBucket walks a time-sorted bucket greedily: the first unplaced trip
// anchors a cluster, and later trips join while they stay within the wait
// window of the (re-centred) anchor and the fleet's largest vehicle still
// fits everyone. Oversized runs therefore split by time order on their own.
func clusterBucket(bucket []candidate, maxWait time.Duration) [][]candidate {
	var clusters [][]candidate
	i := 0
	for i < len(bucket) {
		anchor := bucket[i]
		cluster := []candidate{anchor}
		seats := anchor.t.Headcount()
		j := i + 1
		for j < len(bucket) {
			next := bucket[j]
			// anchor is re-centred to the span midpoint, so members may
			// span at most twice the wait window
			if next.dep.Sub(anchor.dep) > 2*maxWait {
				break
			}
			if seats+next.t.Headcount() > location.MaxCapacity() {
				break
			}
			cluster = append(cluster, next)
			seats += next.t.Headcount()
			j++
		}
		clusters = append(clusters, cluster)
		i = j
	}
	return clusters
}

// BuildProposal validates an explicit member set and computes its group cost
// and savings. It is the single source of truth for the arithmetic: the
// preview path runs it over greedy clusters, and the acceptance path re-runs
// it over the row-locked members so stale previews cannot commit bad numbers.
func BuildProposal(members []*trip.Trip, cfg Config) (*Proposal, error) {
	if len(members) < 2 {
		return nil, ErrTooFewMembers
	}

	first := members[0]
	var (
		seats    int
		soloSum  float64
		earliest time.Time
		latest   time.Time
	)
	for i, m := range members {
		if m.DepartureLocation != first.DepartureLocation ||
			m.Destination != first.Destination ||
			m.DepartureDate != first.DepartureDate {
			return nil, ErrRouteMismatch
		}
		if m.EstimatedCost == nil {
			return nil, ErrMissingCost
		}
		dep, err := m.DepartureAt()
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", m.ID, err)
		}
		if i == 0 || dep.Before(earliest) {
			earliest = dep
		}
		if i == 0 || dep.After(latest) {
			latest = dep
		}
		seats += m.Headcount()
		soloSum += *m.EstimatedCost
	}

	tier, ok := location.TierFor(seats)
	if !ok {
		return nil, ErrOverCapacity
	}

	span := latest.Sub(earliest)
	if span/2 > cfg.MaxWait {
		return nil, ErrWaitExceeded
	}
	proposed := earliest.Add(span / 2).Truncate(time.Minute)

	dist, err := location.Distance(first.DepartureLocation, first.Destination)
	if err != nil {
		return nil, err
	}
	groupCost := dist * 2 * tier.CostPerKm
	savings := soloSum - groupCost
	percent := 0.0
	if soloSum > 0 {
		percent = savings / soloSum * 100
	}
	if savings <= 0 || percent < cfg.MinSavingsPercent {
		return nil, ErrBelowThreshold
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}

	return &Proposal{
		TripIDs:               ids,
		DepartureLocation:     first.DepartureLocation,
		Destination:           first.Destination,
		DepartureDate:         first.DepartureDate,
		ProposedDepartureTime: proposed.Format(clockLayout),
		VehicleType:           tier.Type,
		GroupCost:             groupCost,
		SoloCostSum:           soloSum,
		EstimatedSavings:      savings,
		SavingsPercent:        percent,
		CostPerMember:         round2(groupCost / float64(len(members))),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
