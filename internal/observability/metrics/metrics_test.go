package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPipelineMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveInbound("processed")
	m.ObserveInbound("processed")
	m.ObserveReminderSent("1")
	m.ObserveUnresponsive()
	m.ObserveJob("send_reminder", "completed", 0.1)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.inboundTotal.WithLabelValues("processed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.remindersTotal.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.unresponsiveTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.jobsTotal.WithLabelValues("send_reminder", "completed")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveInbound("processed")
	m.ObserveOutbound("solicit")
	m.ObserveReminderSent("2")
	m.ObserveUnresponsive()
	m.ObserveQualified()
	m.ObserveJob("x", "failed", 1)
}
