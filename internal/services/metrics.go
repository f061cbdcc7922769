package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultNotFound = "not_found"
	ResultIgnored  = "ignored"
)

type Metrics struct {
	WebhookEvents *prometheus.CounterVec
	Actions       *prometheus.CounterVec
	PushRequests  *prometheus.CounterVec
	OTPOperations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_assistant_webhook_events_total",
				Help: "Total number of webhook events received",
			},
			[]string{"kind"},
		),
		Actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_assistant_actions_total",
				Help: "Total number of dispatched actions by outcome",
			},
			[]string{"action", "result"},
		),
		PushRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_assistant_push_requests_total",
				Help: "Total number of push API calls by outcome",
			},
			[]string{"result"},
		),
		OTPOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "line_assistant_otp_operations_total",
				Help: "Total number of one-time pass store operations",
			},
			[]string{"op", "result"},
		),
	}
}

// The recorders below accept a nil receiver so collaborators can run without metrics.

func (m *Metrics) RecordEvent(kind string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordAction(action, result string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) RecordPush(result string) {
	if m == nil {
		return
	}
	m.PushRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordOTP(op, result string) {
	if m == nil {
		return
	}
	m.OTPOperations.WithLabelValues(op, result).Inc()
}
