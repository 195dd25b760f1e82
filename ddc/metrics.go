package ddc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exchange results and attempt outcomes used as metric labels.
const (
	resultOK       = "ok"
	resultError    = "error"
	outcomeOK      = "ok"
	outcomeTimeout = "timeout"
	outcomeCorrupt = "corrupt"
	outcomeBusy    = "busy"
	outcomeIO      = "io"
	outcomeFault   = "protocol_fault"
	outcomeReject  = "unsupported"
	outcomeGone    = "gone"
)

// Metrics holds the Prometheus collectors of the engine.
type Metrics struct {
	Exchanges        *prometheus.CounterVec
	Attempts         *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
	ReassembledBytes *prometheus.HistogramVec
}

// NewMetrics creates the engine collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Exchanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ddcci",
				Subsystem: "engine",
				Name:      "exchanges_total",
				Help:      "Completed exchanges by command and result.",
			},
			[]string{"command", "result"},
		),
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ddcci",
				Subsystem: "engine",
				Name:      "attempts_total",
				Help:      "Bus round trips by command and outcome.",
			},
			[]string{"command", "outcome"},
		),
		ExchangeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ddcci",
				Subsystem: "engine",
				Name:      "exchange_duration_seconds",
				Help:      "Exchange duration including retries and settle delays.",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5},
			},
			[]string{"command"},
		),
		ReassembledBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ddcci",
				Subsystem: "assembler",
				Name:      "reassembled_bytes",
				Help:      "Size of reassembled capabilities strings and tables.",
				Buckets:   prometheus.ExponentialBuckets(32, 2, 9),
			},
			[]string{"phase"},
		),
	}
}

func (m *Metrics) recordAttempt(command, outcome string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) recordExchange(command string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.Exchanges.WithLabelValues(command, result).Inc()
	m.ExchangeDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func (m *Metrics) recordReassembly(phase string, size int) {
	if m == nil {
		return
	}
	m.ReassembledBytes.WithLabelValues(phase).Observe(float64(size))
}
