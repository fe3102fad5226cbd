package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keranjang",
		Subsystem: "cart",
		Name:      "operations_total",
		Help:      "Count of cart operations by outcome.",
	}, []string{"operation", "outcome"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "keranjang",
		Subsystem: "cart",
		Name:      "operation_duration_seconds",
		Help:      "Latency of cart operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	VersionConflictTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keranjang",
		Subsystem: "cart",
		Name:      "version_conflicts_total",
		Help:      "Optimistic lock conflicts detected, including retried ones.",
	}, []string{"operation"})

	SweptCartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keranjang",
		Subsystem: "cart",
		Name:      "swept_carts_total",
		Help:      "Expired carts completed by the sweeper.",
	})
)

// ObserveOperation records one finished operation. Call it deferred with the
// operation start time and a pointer to the returned error.
func ObserveOperation(operation string, start time.Time, err *error) {
	outcome := "ok"
	if err != nil && *err != nil {
		outcome = "error"
	}
	OperationTotal.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
