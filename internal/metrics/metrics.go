// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters the webhook ingestor and event processor record.
type Metrics struct {
	WebhooksReceived      *prometheus.CounterVec
	EventsProcessed       *prometheus.CounterVec
	TransactionsSubmitted prometheus.Counter
	MessagesRedriven      prometheus.Counter
}

// New registers the service counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhooksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "upsync_webhooks_received_total",
			Help: "Webhook deliveries accepted for processing, by event type.",
		}, []string{"event_type"}),
		EventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "upsync_events_processed_total",
			Help: "Queued events processed, by outcome.",
		}, []string{"outcome"}),
		TransactionsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "upsync_transactions_submitted_total",
			Help: "Transactions submitted to Lunch Money, round-ups included.",
		}),
		MessagesRedriven: factory.NewCounter(prometheus.CounterOpts{
			Name: "upsync_messages_redriven_total",
			Help: "Messages moved from the DLQ back to the main queue.",
		}),
	}
}
