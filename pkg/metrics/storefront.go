package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records catalog degradation and checkout progress.
type StorefrontMetrics struct {
	sourceFailures *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	paymentLatency *prometheus.HistogramVec
	cartMutations  *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	sourceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_source_failures_total",
		Help: "Catalog source reads that failed and fell back.",
	}, []string{"operation"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transitions_total",
		Help: "Checkout state machine transitions.",
	}, []string{"from", "to"})
	paymentLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_call_duration_seconds",
		Help:    "Duration of payment collaborator calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart store mutations by operation.",
	}, []string{"operation"})
	reg.MustRegister(sourceFailures, transitions, paymentLatency, cartMutations)
	return &StorefrontMetrics{
		sourceFailures: sourceFailures,
		transitions:    transitions,
		paymentLatency: paymentLatency,
		cartMutations:  cartMutations,
	}
}

// IncSourceFailure counts a catalog read that degraded to fallback data.
func (m *StorefrontMetrics) IncSourceFailure(operation string) {
	if m == nil || m.sourceFailures == nil {
		return
	}
	m.sourceFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncTransition counts a checkout state change.
func (m *StorefrontMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObservePayment records how long a payment collaborator call took.
func (m *StorefrontMetrics) ObservePayment(operation string, success bool, d time.Duration) {
	if m == nil || m.paymentLatency == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.paymentLatency.WithLabelValues(normalizeLabel(operation), outcome).Observe(d.Seconds())
}

// IncCartMutation counts a cart store mutation.
func (m *StorefrontMetrics) IncCartMutation(operation string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
