package queue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// queueLength is a Gauge of jobs waiting to be run
var queueLength prometheus.Gauge

// EnableMetrics will enable metrics collection for the queue.
// Available metrics are...
//   - lohr_queue_length
//     A Gauge of jobs waiting in the queue, in-flight job is not included.
func EnableMetrics(metricsNamespace string, registerer prometheus.Registerer) {
	queueLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "lohr_queue_length",
		Help:      "Number of mirror jobs waiting to be run",
	})

	registerer.MustRegister(queueLength)
}

func setQueueLength(length int) {
	// if metrics not enabled return
	if queueLength == nil {
		return
	}
	queueLength.Set(float64(length))
}
