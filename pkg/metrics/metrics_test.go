package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPromIndicators(t *testing.T) {
	reg := prometheus.NewRegistry()
	ind := NewPromIndicators(reg, "test")

	ind.IncrementApprovalsTotal("CAKE", "success")
	ind.IncrementApprovalsTotal("CAKE", "success")
	ind.IncrementCommitsTotal("failure")
	ind.IncrementInFlight()
	ind.IncrementInFlight()
	ind.DecrementInFlight()

	assert.Equal(t, 2.0, testutil.ToFloat64(ind.approvalsTotal.WithLabelValues("CAKE", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ind.commitsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ind.inFlight))
}
