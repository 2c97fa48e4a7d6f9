package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionDecode = "decode"
	DirectionEncode = "encode"
)

var (
	registerOnce sync.Once

	layerBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storedbg",
			Subsystem: "layer",
			Name:      "bytes_total",
			Help:      "Bytes passed through a protocol layer.",
		},
		[]string{"layer", "direction"},
	)
	layerFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storedbg",
			Subsystem: "layer",
			Name:      "frames_total",
			Help:      "Complete frames passed through a protocol layer.",
		},
		[]string{"layer", "direction"},
	)
	layerDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storedbg",
			Subsystem: "layer",
			Name:      "dropped_frames_total",
			Help:      "Frames a protocol layer discarded.",
		},
		[]string{"layer", "reason"},
	)
	debuggerCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storedbg",
			Subsystem: "debugger",
			Name:      "commands_total",
			Help:      "Debugger requests by command and outcome.",
		},
		[]string{"command", "success"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storedbg",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storedbg",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(layerBytes, layerFrames, layerDrops, debuggerCommands, httpRequests, httpDuration)
	})
}

// RecordLayer counts n bytes through layer. frame marks the end of a frame.
func RecordLayer(layer, direction string, n int, frame bool) {
	RegisterMetrics()
	if n > 0 {
		layerBytes.WithLabelValues(layer, direction).Add(float64(n))
	}
	if frame {
		layerFrames.WithLabelValues(layer, direction).Inc()
	}
}

func RecordLayerDrop(layer, reason string) {
	RegisterMetrics()
	layerDrops.WithLabelValues(layer, reason).Inc()
}

// RecordCommand counts one debugger request. Unknown or empty commands are
// folded into "?" to keep label cardinality bounded.
func RecordCommand(cmd byte, success bool) {
	RegisterMetrics()
	label := "?"
	if cmd >= 'a' && cmd <= 'z' || cmd == '?' {
		label = string(cmd)
	}
	debuggerCommands.WithLabelValues(label, strconv.FormatBool(success)).Inc()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
