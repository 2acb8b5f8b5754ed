package pool

import "github.com/prometheus/client_golang/prometheus"

// Metric label values for terminal task status.
const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusCancelled = "cancelled"
)

var (
	queuedTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "terra_pool_queued_tasks",
			Help: "Number of tasks waiting in the pool queue.",
		},
		[]string{"pool"},
	)

	runningTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "terra_pool_running_tasks",
			Help: "Number of tasks currently executing.",
		},
		[]string{"pool"},
	)

	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_pool_tasks_total",
			Help: "Total number of tasks that reached a terminal state.",
		},
		[]string{"pool", "status"},
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terra_pool_task_duration_seconds",
			Help:    "Execution time of completed tasks, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pool"},
	)
)

func init() {
	prometheus.MustRegister(queuedTasks)
	prometheus.MustRegister(runningTasks)
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(taskDuration)
}

// initPoolMetrics pre-initializes label combinations for a pool so
// they appear in /metrics with value 0 from startup, rather than only
// after first observation.
func initPoolMetrics(name string) {
	queuedTasks.WithLabelValues(name)
	runningTasks.WithLabelValues(name)
	taskDuration.WithLabelValues(name)
	for _, status := range []string{statusSucceeded, statusFailed, statusCancelled} {
		tasksTotal.WithLabelValues(name, status)
	}
}
