package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exports harness activity. Constructed against an
// explicit registerer so tests can use isolated registries.
type PrometheusCollector struct {
	offersTotal          *prometheus.CounterVec
	handshakeDuration    prometheus.Histogram
	iceGatheringDuration prometheus.Histogram
	activeConnection     prometheus.Gauge
	channelsOpenedTotal  prometheus.Counter
	messagesReceived     prometheus.Counter
	messagesSent         prometheus.Counter
	bytesReceived        prometheus.Counter
	sendFailures         prometheus.Counter
}

func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		offersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dcprobe_offers_total",
			Help: "Offer handshakes by result",
		}, []string{"result"}),

		handshakeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dcprobe_handshake_duration_seconds",
			Help:    "Duration of successful offer/answer handshakes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		iceGatheringDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dcprobe_ice_gathering_duration_seconds",
			Help:    "Time spent waiting for ICE candidate gathering",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		activeConnection: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dcprobe_active_connection",
			Help: "1 while a peer connection is live, 0 when idle",
		}),

		channelsOpenedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dcprobe_channels_opened_total",
			Help: "Data channels observed open (server- and remote-created)",
		}),

		messagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "dcprobe_messages_received_total",
			Help: "Inbound data channel messages",
		}),

		messagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "dcprobe_messages_sent_total",
			Help: "Outbound data channel messages successfully handed to the engine",
		}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "dcprobe_bytes_received_total",
			Help: "Inbound data channel payload bytes",
		}),

		sendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dcprobe_send_failures_total",
			Help: "Data channel sends rejected by the engine",
		}),
	}
}

func (p *PrometheusCollector) RecordOffer(result string) {
	p.offersTotal.WithLabelValues(result).Inc()
}

func (p *PrometheusCollector) ObserveHandshakeDuration(d time.Duration) {
	p.handshakeDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) ObserveICEGatheringDuration(d time.Duration) {
	p.iceGatheringDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) SetConnectionActive(active bool) {
	if active {
		p.activeConnection.Set(1)
	} else {
		p.activeConnection.Set(0)
	}
}

func (p *PrometheusCollector) RecordChannelOpened() {
	p.channelsOpenedTotal.Inc()
}

func (p *PrometheusCollector) RecordMessageReceived(bytes int) {
	p.messagesReceived.Inc()
	p.bytesReceived.Add(float64(bytes))
}

func (p *PrometheusCollector) RecordMessageSent() {
	p.messagesSent.Inc()
}

func (p *PrometheusCollector) RecordSendFailure() {
	p.sendFailures.Inc()
}
