// Package metrics содержит счётчики Prometheus площадки.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// Metrics - счётчики бизнес-операций.
type Metrics struct {
	OrdersCreated        *prometheus.CounterVec
	ResponsesSubmitted   *prometheus.CounterVec
	AcceptanceConflicts  prometheus.Counter
	NotificationFailures *prometheus.CounterVec
}

// New регистрирует счётчики в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OrdersCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created, by source.",
		}, []string{"source"}),
		ResponsesSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tender_responses_submitted_total",
			Help:      "Tender responses submitted, by outcome.",
		}, []string{"outcome"}),
		AcceptanceConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tender_acceptance_conflicts_total",
			Help:      "Acceptances rejected because the tender was already closed.",
		}),
		NotificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered, by event.",
		}, []string{"event"}),
	}
}

// NotificationFailed увеличивает счётчик ошибок доставки. Подходит как onFailure для notify.Dispatcher.
func (m *Metrics) NotificationFailed(event string) {
	m.NotificationFailures.WithLabelValues(event).Inc()
}
