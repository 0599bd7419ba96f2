package rest

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts and times calls to the store.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the upstream collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Calls made to the REST store, by method, resource kind and status code.",
		}, []string{"method", "kind", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls made to the REST store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "kind"}),
	}
}

// observe is safe on a nil receiver so clients built without metrics skip it.
func (m *Metrics) observe(method string, kind Kind, status int, start time.Time) {
	if m == nil {
		return
	}
	code := "error"
	if status != 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, string(kind), code).Inc()
	m.duration.WithLabelValues(method, string(kind)).Observe(time.Since(start).Seconds())
}
