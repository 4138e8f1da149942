package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TripsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tripflow", Name: "trips_submitted_total", Help: "Trips submitted, by initial status"},
		[]string{"status"},
	)
	ManagerDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tripflow", Name: "manager_decisions_total", Help: "Manager approval-link decisions"},
		[]string{"action"},
	)
	OverridesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tripflow", Name: "overrides_total", Help: "Manual override attempts, by outcome"},
		[]string{"outcome"},
	)
	OptimizerRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "tripflow", Name: "optimizer_run_duration_seconds", Help: "Optimizer clustering run latency"},
	)
	OptimizerProposalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "tripflow", Name: "optimizer_proposals_total", Help: "Proposals emitted by the optimizer"},
	)
	GroupsAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "tripflow", Name: "groups_accepted_total", Help: "Optimization groups committed"},
	)
	EstimatedSavings = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tripflow",
			Name:      "group_estimated_savings_vnd",
			Help:      "Estimated savings per committed group",
			Buckets:   prometheus.ExponentialBuckets(50000, 2, 8),
		},
	)
	NotifyFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "tripflow", Name: "notify_failures_total", Help: "Notification publishes that failed after retries"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tripflow", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tripflow",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
