package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(RetryActions.WithLabelValues("reprompt"))
	RetryActions.WithLabelValues("reprompt").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RetryActions.WithLabelValues("reprompt")))

	CallsStarted.WithLabelValues("metrics_test").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(CallsStarted.WithLabelValues("metrics_test")))
}
