package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the bot.
type Metrics struct {
	UpdatesReceived  *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec
	HandlerDuration  *prometheus.HistogramVec
	Errors           *prometheus.CounterVec
	AdminDecisions   *prometheus.CounterVec
	RegistrationsNew prometheus.Counter
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			UpdatesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_received_total",
				Help:      "Total Telegram updates processed by kind.",
			}, []string{"kind"}),
			MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Total outgoing Telegram messages by type and outcome.",
			}, []string{"type", "status"}),
			HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handler_duration_seconds",
				Help:      "Latency distribution for update handling.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"kind"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
			AdminDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admin_decisions_total",
				Help:      "Total admin payment decisions by outcome.",
			}, []string{"decision"}),
			RegistrationsNew: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_started_total",
				Help:      "Total registration flows started.",
			}),
		}

		prometheus.MustRegister(
			metricsInstance.UpdatesReceived,
			metricsInstance.MessagesSent,
			metricsInstance.HandlerDuration,
			metricsInstance.Errors,
			metricsInstance.AdminDecisions,
			metricsInstance.RegistrationsNew,
		)
	})
	return metricsInstance
}
