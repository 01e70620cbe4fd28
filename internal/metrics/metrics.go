package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the engagement collectors on a private registry so tests can
// build as many as they like.
type Registry struct {
	reg *prometheus.Registry

	Intents         *prometheus.CounterVec
	IntentDuration  *prometheus.HistogramVec
	ConflictRetries *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Name:      "intents_total",
			Help:      "Intents handled by the reconciliation coordinator, by intent and outcome.",
		}, []string{"intent", "outcome"}),
		IntentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "engagement",
			Name:      "intent_duration_seconds",
			Help:      "Latency of coordinator intents.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		ConflictRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Name:      "conflict_retries_total",
			Help:      "Intents retried after a storage conflict.",
		}, []string{"intent"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Name:      "events_published_total",
			Help:      "Engagement events handed to the publisher, by type and result.",
		}, []string{"type", "result"}),
	}
	r.reg.MustRegister(
		r.Intents,
		r.IntentDuration,
		r.ConflictRetries,
		r.EventsPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveIntent records one finished intent. outcome is "changed",
// "unchanged" or the error kind. Safe on a nil Registry.
func (r *Registry) ObserveIntent(intent, outcome string, started time.Time) {
	if r == nil {
		return
	}
	r.Intents.WithLabelValues(intent, outcome).Inc()
	r.IntentDuration.WithLabelValues(intent).Observe(time.Since(started).Seconds())
}

func (r *Registry) ObserveRetry(intent string) {
	if r == nil {
		return
	}
	r.ConflictRetries.WithLabelValues(intent).Inc()
}

func (r *Registry) ObserveEvent(eventType string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.EventsPublished.WithLabelValues(eventType, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
