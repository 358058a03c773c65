package upload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes counted by Metrics.
const (
	OutcomeChunk     = "chunk"
	OutcomeCompleted = "completed"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// Metrics holds the upload collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	failures       *prometheus.CounterVec
	bytes          prometheus.Counter
	mirrorFailures prometheus.Counter
}

// NewMetrics registers the upload collectors on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "uploadgate"
	}
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "requests_total",
			Help:      "Upload requests by outcome.",
		}, []string{"outcome"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "failures_total",
			Help:      "Rejected upload requests by error kind.",
		}, []string{"kind"}),
		bytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "bytes_total",
			Help:      "Bytes written to partial files.",
		}),
		mirrorFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "mirror_failures_total",
			Help:      "Finished files that could not be mirrored.",
		}),
	}
}

func (m *Metrics) observe(outcome string, written int64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	if written > 0 {
		m.bytes.Add(float64(written))
	}
}

func (m *Metrics) reject(kind string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(OutcomeRejected).Inc()
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) mirrorFailed() {
	if m == nil {
		return
	}
	m.mirrorFailures.Inc()
}
