package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Event("call:initiate", Forwarded)
	m.Event("call:initiate", Forwarded)
	m.Event("call:initiate", Rejected)
	m.AuthFailure("invalid")
	m.SetPresence(3)
	m.SetActiveCalls(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("call:initiate", Forwarded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("call:initiate", Rejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("invalid")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.presence))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.activeCalls))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Event("call:end", Dropped)
		m.AuthFailure("required")
		m.SetPresence(1)
		m.SetActiveCalls(1)
	})
}
