package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the qualification pipeline.
type PipelineMetrics struct {
	inboundTotal      *prometheus.CounterVec
	outboundTotal     *prometheus.CounterVec
	remindersTotal    *prometheus.CounterVec
	unresponsiveTotal prometheus.Counter
	qualifiedTotal    prometheus.Counter
	jobsTotal         *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "conversation",
			Name:      "inbound_total",
			Help:      "Inbound customer messages processed",
		}, []string{"outcome"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "conversation",
			Name:      "outbound_total",
			Help:      "Outbound bot messages sent",
		}, []string{"kind"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Reminder messages sent by reminder number",
		}, []string{"number"}),
		unresponsiveTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "reminders",
			Name:      "unresponsive_total",
			Help:      "Leads marked unresponsive after exhausted reminders",
		}),
		qualifiedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "conversation",
			Name:      "qualified_total",
			Help:      "Conversations that reached the completed state",
		}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Scheduled job executions by kind and status",
		}, []string{"kind", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadflow",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Scheduled job execution latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.inboundTotal, m.outboundTotal, m.remindersTotal,
		m.unresponsiveTotal, m.qualifiedTotal, m.jobsTotal, m.jobDuration,
	)
	return m
}

func (m *PipelineMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveOutbound(kind string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind).Inc()
}

func (m *PipelineMetrics) ObserveReminderSent(number string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(number).Inc()
}

func (m *PipelineMetrics) ObserveUnresponsive() {
	if m == nil {
		return
	}
	m.unresponsiveTotal.Inc()
}

func (m *PipelineMetrics) ObserveQualified() {
	if m == nil {
		return
	}
	m.qualifiedTotal.Inc()
}

func (m *PipelineMetrics) ObserveJob(kind, status string, seconds float64) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(kind, status).Inc()
	m.jobDuration.WithLabelValues(kind).Observe(seconds)
}
