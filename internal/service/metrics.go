package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain counters exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	roomsCreated   prometheus.Counter
	joins          *prometheus.CounterVec
	leaves         *prometheus.CounterVec
	roomsClosed    *prometheus.CounterVec
	assistantCalls *prometheus.CounterVec
	notifications  *prometheus.CounterVec
}

// NewMetrics registers the domain counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		roomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rideshare_rooms_created_total",
			Help: "Rooms created.",
		}),
		joins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_room_joins_total",
			Help: "Join attempts by result.",
		}, []string{"result"}),
		leaves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_room_leaves_total",
			Help: "Leave attempts by result.",
		}, []string{"result"}),
		roomsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_rooms_closed_total",
			Help: "Rooms closed by final status.",
		}, []string{"status"}),
		assistantCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_assistant_requests_total",
			Help: "Assistant requests by flow and result.",
		}, []string{"flow", "result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_notifications_total",
			Help: "Notification deliveries by channel and result.",
		}, []string{"channel", "result"}),
	}
}

func (m *Metrics) roomCreated() {
	if m == nil {
		return
	}
	m.roomsCreated.Inc()
}

func (m *Metrics) joinResult(err error) {
	if m == nil {
		return
	}
	m.joins.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) leaveResult(err error) {
	if m == nil {
		return
	}
	m.leaves.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) roomClosed(status string) {
	if m == nil {
		return
	}
	m.roomsClosed.WithLabelValues(status).Inc()
}

func (m *Metrics) assistantResult(flow string, err error) {
	if m == nil {
		return
	}
	m.assistantCalls.WithLabelValues(flow, resultLabel(err)).Inc()
}

func (m *Metrics) notificationResult(channel string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isClientError(err):
		return "rejected"
	default:
		return "error"
	}
}
