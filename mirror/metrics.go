package mirror

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// lastJobTimestamp is a Gauge that captures the timestamp of the last
	// successful mirror job
	lastJobTimestamp *prometheus.GaugeVec
	// jobCount is a Counter vector of mirror jobs
	jobCount *prometheus.CounterVec
	// jobLatency is a Histogram vector that keeps track of mirror job durations
	jobLatency *prometheus.HistogramVec
	// pushCount is a Counter vector of mirror pushes
	pushCount *prometheus.CounterVec
)

// EnableMetrics will enable metrics collection for mirror jobs.
// Available metrics are...
//   - lohr_last_job_success_timestamp - (tags: repo)
//     A Gauge that captures the Timestamp of the last successful job per repo.
//   - lohr_jobs_total - (tags: repo,success)
//     A Counter for each job run, tagged with the result (success=true|false)
//   - lohr_job_latency_seconds - (tags: repo)
//     A Histogram that keeps track of the job latency per repo.
//   - lohr_pushes_total - (tags: repo,success)
//     A Counter for each push to a remote, tagged with the result
func EnableMetrics(metricsNamespace string, registerer prometheus.Registerer) {
	lastJobTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "lohr_last_job_success_timestamp",
		Help:      "Timestamp of the last successful mirror job",
	},
		[]string{
			// full name of the repository
			"repo",
		},
	)

	jobCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "lohr_jobs_total",
		Help:      "Count of mirror jobs",
	},
		[]string{
			// full name of the repository
			"repo",
			// Whether the job was successful or not
			"success",
		},
	)

	jobLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "lohr_job_latency_seconds",
		Help:      "Latency for mirror job",
		Buckets:   []float64{0.5, 1, 5, 10, 20, 30, 60, 90, 120, 150, 300, 600},
	},
		[]string{
			// full name of the repository
			"repo",
		},
	)

	pushCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "lohr_pushes_total",
		Help:      "Count of pushes to mirror remotes",
	},
		[]string{
			"repo",
			"success",
		},
	)

	registerer.MustRegister(
		lastJobTimestamp,
		jobCount,
		jobLatency,
		pushCount,
	)
}

// recordJob records a mirror job attempt by updating all the
// relevant metrics
func recordJob(repo string, success bool) {
	// if metrics not enabled return
	if lastJobTimestamp == nil || jobCount == nil {
		return
	}
	if success {
		lastJobTimestamp.With(prometheus.Labels{
			"repo": repo,
		}).Set(float64(time.Now().Unix()))
	}
	jobCount.With(prometheus.Labels{
		"repo":    repo,
		"success": strconv.FormatBool(success),
	}).Inc()
}

func updateJobLatency(repo string, start time.Time) {
	// if metrics not enabled return
	if jobLatency == nil {
		return
	}
	jobLatency.WithLabelValues(repo).Observe(time.Since(start).Seconds())
}

func recordPush(repo string, success bool) {
	if pushCount == nil {
		return
	}
	pushCount.WithLabelValues(repo, strconv.FormatBool(success)).Inc()
}
