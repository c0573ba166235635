package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveJobAndItem(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveJob("website", "done", 1.5)
	m.ObserveJob("website", "done", 0.5)
	m.ObserveJob("document", "failed", 2.0)
	m.ObserveItem("done")
	m.ObserveItem("failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobsProcessed.WithLabelValues("website", "done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsProcessed.WithLabelValues("document", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsProcessed.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsProcessed.WithLabelValues("failed")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveJob("website", "done", 1.0)
		m.ObserveItem("done")
	})
}
