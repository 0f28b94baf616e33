package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "comando",
			Subsystem: "frame",
			Name:      "frames_total",
			Help:      "Frames read from or written to the stream.",
		},
		[]string{"direction", "result"},
	)
	frameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "comando",
			Subsystem: "frame",
			Name:      "payload_bytes_total",
			Help:      "Frame payload bytes moved over the stream.",
		},
		[]string{"direction"},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "comando",
			Subsystem: "command",
			Name:      "commands_total",
			Help:      "Commands sent or dispatched, by command id.",
		},
		[]string{"direction", "cid", "result"},
	)
	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "comando",
			Subsystem: "event",
			Name:      "blocking_call_duration_seconds",
			Help:      "Time from trigger until the same-named response was dispatched.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"event", "result"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "comando",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served by the metrics endpoint.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "comando",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency of the metrics endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, frameBytes, commandsTotal, callDuration, httpRequests, httpDuration)
	})
}

func RecordFrame(direction string, size int, err error) {
	RegisterMetrics()
	framesTotal.WithLabelValues(direction, resultLabel(err)).Inc()
	if err == nil {
		frameBytes.WithLabelValues(direction).Add(float64(size))
	}
}

func RecordCommand(direction string, cid uint8, err error) {
	RegisterMetrics()
	commandsTotal.WithLabelValues(direction, strconv.Itoa(int(cid)), resultLabel(err)).Inc()
}

func RecordCall(event string, duration time.Duration, err error) {
	RegisterMetrics()
	callDuration.WithLabelValues(event, resultLabel(err)).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
