package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collector counters, registered on their own registry
// so tests and multiple instances don't collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	MessagesReceived  *prometheus.CounterVec // by command
	ProtocolErrors    *prometheus.CounterVec // by command
	Connections       *prometheus.CounterVec // by result
	AddressesReceived prometheus.Counter
	AddressesExpired  prometheus.Counter
	AddressesStored   prometheus.Counter
	KnownNodes        prometheus.Gauge
}

// Connection results.
const (
	ResultConnected = "connected"
	ResultFailed    = "failed"
	ResultRejected  = "rejected"
)

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.MessagesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dogeaddr_messages_received_total",
		Help: "Messages received from core nodes, by command",
	}, []string{"command"})

	m.ProtocolErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dogeaddr_protocol_errors_total",
		Help: "Malformed or oversized messages that caused a disconnect, by command",
	}, []string{"command"})

	m.Connections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dogeaddr_connections_total",
		Help: "Connection attempts to core nodes, by result",
	}, []string{"result"})

	m.AddressesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dogeaddr_addresses_received_total",
		Help: "Addresses received in addr messages",
	})

	m.AddressesExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dogeaddr_addresses_expired_total",
		Help: "Received addresses dropped because they were last seen too long ago",
	})

	m.AddressesStored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dogeaddr_addresses_stored_total",
		Help: "Received addresses written to the store",
	})

	m.KnownNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dogeaddr_known_nodes",
		Help: "Core nodes currently in the store",
	})

	m.registry.MustRegister(
		m.MessagesReceived,
		m.ProtocolErrors,
		m.Connections,
		m.AddressesReceived,
		m.AddressesExpired,
		m.AddressesStored,
		m.KnownNodes,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
