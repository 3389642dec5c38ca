package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounters(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	c.RecordOffer("ok")
	c.RecordOffer("ok")
	c.RecordOffer("conflict")
	c.RecordChannelOpened()
	c.RecordMessageReceived(100)
	c.RecordMessageReceived(24)
	c.RecordMessageSent()
	c.RecordSendFailure()

	assert.Equal(t, float64(2), testutil.ToFloat64(c.offersTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.offersTotal.WithLabelValues("conflict")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.channelsOpenedTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.messagesReceived))
	assert.Equal(t, float64(124), testutil.ToFloat64(c.bytesReceived))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.messagesSent))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.sendFailures))
}

func TestCollectorConnectionGauge(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	assert.Equal(t, float64(0), testutil.ToFloat64(c.activeConnection))

	c.SetConnectionActive(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.activeConnection))

	c.SetConnectionActive(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(c.activeConnection))
}

func TestCollectorIsolatedRegistries(t *testing.T) {
	// Two collectors on separate registries must not collide.
	a := NewPrometheusCollector(prometheus.NewRegistry())
	b := NewPrometheusCollector(prometheus.NewRegistry())

	a.RecordOffer("ok")
	a.ObserveHandshakeDuration(50 * time.Millisecond)
	b.ObserveICEGatheringDuration(10 * time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(a.offersTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.offersTotal.WithLabelValues("ok")))
}
