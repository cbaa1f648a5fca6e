package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tournevent/stashop/pkg/webservice"
)

// OtherResource is the resource label recorded for names outside the
// known set.
const OtherResource = "other"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	CallsTotal      *prometheus.CounterVec
	CallDuration    *prometheus.HistogramVec
	CallErrors      *prometheus.CounterVec
	GatewayRequests *prometheus.CounterVec

	// known is written only before the metrics are shared.
	known map[string]bool
}

// NewMetrics creates Prometheus metrics and registers them with reg. A nil
// reg selects the default registerer. The resource label is limited to
// webservice.StandardResources plus names added with AllowResources.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stashop_webservice_calls_total",
				Help: "Total number of web service calls by method, resource, and status",
			},
			[]string{"method", "resource", "status"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stashop_webservice_call_duration_seconds",
				Help:    "Web service call duration in seconds by method and resource",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "resource"},
		),
		CallErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stashop_webservice_errors_total",
				Help: "Total web service transport errors by method and resource",
			},
			[]string{"method", "resource"},
		),
		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stashop_gateway_requests_total",
				Help: "Total gateway requests by resource and status",
			},
			[]string{"resource", "status"},
		),
		known: make(map[string]bool, len(webservice.StandardResources)),
	}
	m.AllowResources(webservice.StandardResources...)
	return m
}

// AllowResources adds names to the set recorded under their own resource
// label. Call it before the metrics are used concurrently.
func (m *Metrics) AllowResources(names ...string) {
	for _, name := range names {
		m.known[name] = true
	}
}

// ResourceLabel returns name if it is known and OtherResource otherwise.
func (m *Metrics) ResourceLabel(name string) string {
	if m.known[name] {
		return name
	}
	return OtherResource
}

// RecordCall records a completed web service call.
func (m *Metrics) RecordCall(method, resource, status string, duration float64) {
	resource = m.ResourceLabel(resource)
	m.CallsTotal.WithLabelValues(method, resource, status).Inc()
	m.CallDuration.WithLabelValues(method, resource).Observe(duration)
}

// RecordError records a web service call that failed before a reply.
func (m *Metrics) RecordError(method, resource string) {
	m.CallErrors.WithLabelValues(method, m.ResourceLabel(resource)).Inc()
}

// RecordGatewayRequest records a request served by the gateway.
func (m *Metrics) RecordGatewayRequest(resource, status string) {
	m.GatewayRequests.WithLabelValues(m.ResourceLabel(resource), status).Inc()
}
