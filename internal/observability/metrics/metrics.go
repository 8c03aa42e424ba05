package metrics

import "github.com/prometheus/client_golang/prometheus"

// BridgeMetrics exposes counters/histograms for the relay flows.
type BridgeMetrics struct {
	inboundTotal   *prometheus.CounterVec
	replyTotal     *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	m := &BridgeMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound provider webhooks by outcome",
		}, []string{"outcome"}),
		replyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "webhook",
			Name:      "reply_total",
			Help:      "Total bot reply webhooks by outcome",
		}, []string{"outcome"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "outbound",
			Name:      "send_total",
			Help:      "Total outbound HTTP sends by target and status",
		}, []string{"target", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bridge",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.replyTotal, m.outboundTotal, m.webhookLatency)
	return m
}

func (m *BridgeMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *BridgeMetrics) ObserveReply(outcome string) {
	if m == nil {
		return
	}
	m.replyTotal.WithLabelValues(outcome).Inc()
}

func (m *BridgeMetrics) ObserveOutbound(target, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(target, status).Inc()
}

func (m *BridgeMetrics) ObserveWebhookLatency(flow string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(flow).Observe(seconds)
}
