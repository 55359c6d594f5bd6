package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "jamrelay"

var (
	roomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "rooms_active",
		Help:      "Number of rooms in memory.",
	})
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "connections_active",
		Help:      "Number of registered peer connections.",
	})
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "sessions_active",
		Help:      "Number of joined peers in all rooms.",
	})
	messagesIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "messages_in_total",
		Help:      "Inbound peer messages by type.",
	}, []string{"type"})
	messagesOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "messages_out_total",
		Help:      "Outbound messages put into peer queues by type.",
	}, []string{"type"})
	sendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "send_failures_total",
		Help:      "Sends that failed and dropped a session.",
	})
)

// labels of messagesIn for rejected frames
const (
	malformedLabel = "malformed"
	unknownLabel   = "unknown"
)
