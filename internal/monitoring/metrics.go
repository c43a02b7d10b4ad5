// Package monitoring registers Prometheus metrics for the matching
// lifecycle.  Handlers record transitions after they commit; the
// counters are exposed on /metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_listings_created_total",
			Help: "Total listings created",
		},
	)

	applicationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_application_transitions_total",
			Help: "Application status transitions by outcome",
		},
		[]string{"to"},
	)

	cancellationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_cancellation_outcomes_total",
			Help: "Cancellation negotiation events by outcome",
		},
		[]string{"outcome"},
	)

	matchesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_matches_completed_total",
			Help: "Matches where both parties confirmed the handoff",
		},
	)

	publishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_notification_publish_failures_total",
			Help: "Notification events that could not be published to the broker",
		},
	)
)

// ListingCreated records a successful listing creation.
func ListingCreated() { listingsCreated.Inc() }

// ApplicationTransition records an application leaving pending.
// to is the terminal status: accepted, rejected or cancelled.
func ApplicationTransition(to string) { applicationTransitions.WithLabelValues(to).Inc() }

// CancellationOutcome records a cancellation event: requested,
// accepted or rejected.
func CancellationOutcome(outcome string) { cancellationOutcomes.WithLabelValues(outcome).Inc() }

// MatchCompleted records the transition to both-confirmed.
func MatchCompleted() { matchesCompleted.Inc() }

// PublishFailure records a best-effort broker publish that failed.
func PublishFailure() { publishFailures.Inc() }
