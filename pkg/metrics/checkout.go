package metrics

import "github.com/prometheus/client_golang/prometheus"

// Checkout outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeGatewayFail = "gateway_error"
	OutcomeError       = "error"
)

// CheckoutMetrics counts checkout attempts and payment reconciliations.
type CheckoutMetrics struct {
	attempts       *prometheus.CounterVec
	reconciliation *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout counters on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	reconciliation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_reconciliations_total",
		Help:      "Payment callbacks and sweeps by path and result.",
	}, []string{"path", "result"})
	reg.MustRegister(attempts, reconciliation)
	return &CheckoutMetrics{attempts: attempts, reconciliation: reconciliation}
}

// IncAttempt counts a checkout attempt with the given outcome.
func (c *CheckoutMetrics) IncAttempt(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReconciliation counts a reconciliation pass. path is success, error or
// sweep; result is paid, failed, expired, skipped, not_found or error.
func (c *CheckoutMetrics) IncReconciliation(path, result string) {
	if c == nil || c.reconciliation == nil {
		return
	}
	c.reconciliation.WithLabelValues(normalizeLabel(path), normalizeLabel(result)).Inc()
}
