package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// webhookCount is a Counter vector of webhook deliveries by result
var webhookCount *prometheus.CounterVec

// enableMetrics registers webhook metrics
//   - lohr_webhooks_total - (tags: result)
//     A Counter for each webhook delivery tagged with how it was handled
func enableMetrics(metricsNamespace string, registerer prometheus.Registerer) {
	webhookCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "lohr_webhooks_total",
		Help:      "Count of webhook deliveries",
	},
		[]string{
			// one of the result* constants
			"result",
		},
	)

	registerer.MustRegister(webhookCount)
}

func recordWebhook(result string) {
	// if metrics not enabled return
	if webhookCount == nil {
		return
	}
	webhookCount.WithLabelValues(result).Inc()
}
