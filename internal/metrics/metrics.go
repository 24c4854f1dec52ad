package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CartOps         *prometheus.CounterVec
	CartItems       prometheus.Gauge
	CheckoutResults *prometheus.CounterVec

	collaborator *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CartOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Cart mutations by operation.",
		}, []string{"op"}),
		CartItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_items",
			Help: "Current cart item count as last observed.",
		}),
		CheckoutResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkout_results_total",
			Help: "Checkout attempts by outcome.",
		}, []string{"result"}),
		collaborator: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_collaborator_request_seconds",
			Help:    "Collaborator round-trip latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
	}
}

func (m *Metrics) ObserveCollaborator(method, outcome string, d time.Duration) {
	m.collaborator.WithLabelValues(method, outcome).Observe(d.Seconds())
}
