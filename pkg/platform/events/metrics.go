package events

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the fabric per event type and listener.
type Metrics struct {
	Published        *prometheus.CounterVec
	Delivered        *prometheus.CounterVec
	Failed           *prometheus.CounterVec
	Retried          *prometheus.CounterVec
	DeliveryDuration *prometheus.HistogramVec
}

// NewMetrics registers the fabric's collectors on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the collectors on reg. Tests pass a fresh registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcadia_events_published_total",
			Help: "Domain events handed to the bus",
		}, []string{"event_type"}),
		Delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcadia_events_delivered_total",
			Help: "Deliveries that a listener handled successfully",
		}, []string{"event_type", "listener"}),
		Failed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcadia_events_failed_total",
			Help: "Deliveries abandoned after the last attempt failed or panicked",
		}, []string{"event_type", "listener"}),
		Retried: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcadia_events_retried_total",
			Help: "Delivery attempts beyond the first",
		}, []string{"event_type", "listener"}),
		DeliveryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arcadia_events_delivery_duration_seconds",
			Help:    "Time spent delivering one event to one listener, retries included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}, []string{"event_type", "listener"}),
	}
}

func (m *Metrics) incPublished(eventType string) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(eventType).Inc()
}

func (m *Metrics) observeDelivery(eventType, listener string, attempts int, err error, start time.Time) {
	if m == nil {
		return
	}
	m.DeliveryDuration.WithLabelValues(eventType, listener).Observe(time.Since(start).Seconds())
	if attempts > 1 {
		m.Retried.WithLabelValues(eventType, listener).Add(float64(attempts - 1))
	}
	if err != nil {
		m.Failed.WithLabelValues(eventType, listener).Inc()
		return
	}
	m.Delivered.WithLabelValues(eventType, listener).Inc()
}
