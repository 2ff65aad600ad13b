package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weekly_shifts"

var (
	once sync.Once

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	shiftOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shifts_total",
			Help:      "Count of shift operations by operation and result.",
		},
		[]string{"op", "result"},
	)

	shiftClashes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shift_clashes_total",
			Help:      "Count of rejected shift writes caused by a clash.",
		},
	)

	weeksPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weeks_published_total",
			Help:      "Count of weeks published.",
		},
	)
)

// Register 可以重复调用
func Register() {
	once.Do(func() {
		prometheus.MustRegister(requestDuration, shiftOps, shiftClashes, weeksPublished)
	})
}

func ObserveRequest(method string, status int, elapsed time.Duration) {
	requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func IncShiftOp(op, result string) {
	shiftOps.WithLabelValues(op, result).Inc()
}

func IncShiftClash() {
	shiftClashes.Inc()
}

func IncWeekPublished() {
	weeksPublished.Inc()
}
