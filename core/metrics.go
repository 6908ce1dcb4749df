package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by the acceptor and workers.
type Metrics struct {
	accepted      prometheus.Counter
	acceptErrors  prometheus.Counter
	closed        *prometheus.CounterVec
	requests      *prometheus.CounterVec
	bytesRead     prometheus.Counter
	bytesWritten  prometheus.Counter
	partialWrites prometheus.Counter
	active        *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered; they still count.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	const ns = "evloop"
	m := &Metrics{
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "connections_accepted_total",
			Help:      "Connections accepted by the listener.",
		}),
		acceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "accept_errors_total",
			Help:      "Accept calls that failed with something other than would-block.",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "connections_closed_total",
			Help:      "Connections closed, by reason.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "requests_total",
			Help:      "Responses produced, by status code.",
		}, []string{"code"}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "read_bytes_total",
			Help:      "Bytes received from clients.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "written_bytes_total",
			Help:      "Bytes sent to clients.",
		}),
		partialWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "partial_writes_total",
			Help:      "Sends that accepted only part of the pending response.",
		}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "connections_active",
			Help:      "Open connections, by worker.",
		}, []string{"worker"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.accepted, m.acceptErrors, m.closed, m.requests,
			m.bytesRead, m.bytesWritten, m.partialWrites, m.active,
		)
	}
	return m
}

func (m *Metrics) activeFor(worker int) prometheus.Gauge {
	return m.active.WithLabelValues(strconv.Itoa(worker))
}
