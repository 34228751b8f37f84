package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's Prometheus registry. A nil *Collector is valid and records nothing.
type Collector struct {
	registry     *prometheus.Registry
	queries      *prometheus.CounterVec
	readings     *prometheus.CounterVec
	translations *prometheus.CounterVec
}

// New registers the service counters on a private registry.
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{
		registry: registry,
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "health_queries_total",
				Help: "Health queries handled, by classified intent and user language.",
			},
			[]string{"intent", "language"},
		),
		readings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "measurement_readings_total",
				Help: "Vital-sign readings served, by operation and answering source.",
			},
			[]string{"operation", "source"},
		),
		translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translation_requests_total",
				Help: "Translator calls made by the query pipeline, by outcome.",
			},
			[]string{"outcome"},
		),
	}
	registry.MustRegister(c.queries, c.readings, c.translations)
	return c
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveQuery counts one pipeline run.
func (c *Collector) ObserveQuery(intent, language string) {
	if c == nil {
		return
	}
	c.queries.WithLabelValues(intent, language).Inc()
}

// ObserveReading counts one measurement or trend lookup.
func (c *Collector) ObserveReading(operation, source string) {
	if c == nil {
		return
	}
	c.readings.WithLabelValues(operation, source).Inc()
}

// ObserveTranslation counts one translator call; outcome is "ok" or "error".
func (c *Collector) ObserveTranslation(outcome string) {
	if c == nil {
		return
	}
	c.translations.WithLabelValues(outcome).Inc()
}
