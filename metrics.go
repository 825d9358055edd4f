package lightspeedbridge

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus instrumentation for the request lifecycle.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	throttleRetries  prometheus.Counter
	throttleWait     prometheus.Histogram
	tokenRefreshes   *prometheus.CounterVec
	bucketLevel      prometheus.Gauge
	bucketMax        prometheus.Gauge
	transportFailure prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightspeed_requests_total",
				Help: "HTTP attempts sent to the Lightspeed API, by method and status code",
			},
			[]string{"method", "status"},
		),
		throttleRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "lightspeed_throttle_retries_total",
			Help: "Requests retried after a 429 response",
		}),
		throttleWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lightspeed_throttle_wait_seconds",
			Help:    "Computed wait before retrying a throttled request",
			Buckets: []float64{0, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		tokenRefreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightspeed_token_refreshes_total",
				Help: "Bearer token refreshes triggered by 401 responses",
			},
			[]string{"result"},
		),
		bucketLevel: f.NewGauge(prometheus.GaugeOpts{
			Name: "lightspeed_bucket_level",
			Help: "Last reported leaky bucket level",
		}),
		bucketMax: f.NewGauge(prometheus.GaugeOpts{
			Name: "lightspeed_bucket_max",
			Help: "Last reported leaky bucket capacity",
		}),
		transportFailure: f.NewCounter(prometheus.CounterOpts{
			Name: "lightspeed_transport_failures_total",
			Help: "Attempts that failed before a response was received",
		}),
	}
}

func (m *Metrics) recordResponse(method Method, status int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(string(method), strconv.Itoa(status)).Inc()
}

func (m *Metrics) recordTransportFailure() {
	if m == nil {
		return
	}
	m.transportFailure.Inc()
}

func (m *Metrics) recordThrottle(waitSeconds float64) {
	if m == nil {
		return
	}
	m.throttleRetries.Inc()
	m.throttleWait.Observe(waitSeconds)
}

func (m *Metrics) recordRefresh(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.tokenRefreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) recordBucket(state BucketState) {
	if m == nil {
		return
	}
	m.bucketLevel.Set(state.Level)
	m.bucketMax.Set(state.Max)
}
