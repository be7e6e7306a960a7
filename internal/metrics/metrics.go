package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the three event-driven surfaces.
var (
	PaymentEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Total number of payment webhook events accepted",
		},
	)

	PaymentEventsDuplicateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_duplicate_total",
			Help: "Payment webhook events suppressed by the idempotency ledger",
		},
	)

	WebhookAuthFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_auth_failures_total",
			Help: "Webhook deliveries rejected for bad signatures or timestamps",
		},
	)

	IdentityDecisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_decisions_total",
			Help: "Total number of identity verification decisions processed",
		},
	)

	RedemptionAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redemption_attempts_total",
			Help: "Total number of pour requests received from devices",
		},
	)

	RedemptionPoursTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redemption_pours_total",
			Help: "Pour requests that resulted in an authorized pour command",
		},
	)

	RedemptionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_failures_total",
			Help: "Pour requests refused, by stable error code",
		},
		[]string{"code"},
	)

	RedemptionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "redemption_request_duration_seconds",
			Help:    "Duration of pour request handling",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(PaymentEventsTotal)
	prometheus.MustRegister(PaymentEventsDuplicateTotal)
	prometheus.MustRegister(WebhookAuthFailuresTotal)
	prometheus.MustRegister(IdentityDecisionsTotal)
	prometheus.MustRegister(RedemptionAttemptsTotal)
	prometheus.MustRegister(RedemptionPoursTotal)
	prometheus.MustRegister(RedemptionFailuresTotal)
	prometheus.MustRegister(RedemptionDuration)
}
