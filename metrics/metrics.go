package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics for the booking service.
type Metrics struct {
	BookingsCreated    prometheus.Counter
	PaymentsRouted     *prometheus.CounterVec
	CallbacksProcessed *prometheus.CounterVec
	Cancellations      prometheus.Counter
	ErrorsCount        *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BookingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "The total number of bookings created",
		}),
		PaymentsRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_routed_total",
			Help:      "The total number of payment sessions created, by stage",
		}, []string{"stage"}),
		CallbacksProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_callbacks_total",
			Help:      "The total number of gateway callbacks processed, by outcome",
		}, []string{"outcome"}),
		Cancellations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_cancelled_total",
			Help:      "The total number of confirmed cancellations",
		}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}

// Default is the process-wide metrics instance.
var Default = NewMetrics("danatour_booking")
