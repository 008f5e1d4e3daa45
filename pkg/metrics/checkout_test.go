package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncAttempt(OutcomeSuccess)
	m.IncAttempt(OutcomeSuccess)
	m.IncAttempt(OutcomeGatewayFail)
	m.IncReconciliation("success", "paid")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeGatewayFail)))

	expected := `
# HELP souq_payment_reconciliations_total Payment callbacks and sweeps by path and result.
# TYPE souq_payment_reconciliations_total counter
souq_payment_reconciliations_total{path="success",result="paid"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "souq_payment_reconciliations_total"))
}

func TestNilCheckoutMetricsIsSafe(t *testing.T) {
	var m *CheckoutMetrics
	m.IncAttempt(OutcomeError)
	NewCheckoutMetrics(nil).IncReconciliation("sweep", "expired")
}
