// Package metrics exposes import measurements in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
)

const namespace = "inventory"

// Collector holds the service metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	imports        *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	reconciled     *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	uploads        *prometheus.CounterVec
	droppedEvents  *prometheus.CounterVec
}

var _ ingest.Recorder = (*Collector)(nil)

func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: registry,
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bom_imports_total",
			Help:      "BOM imports by outcome.",
		}, []string{"outcome"}),
		importDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bom_import_duration_seconds",
			Help:      "Time spent importing a BOM.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_reconciled_total",
			Help:      "Components and services touched by imports, by entity and action.",
		}, []string{"entity", "action"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upload_queue_depth",
			Help:      "Uploads waiting for a worker.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bom_uploads_total",
			Help:      "BOM uploads received, by result.",
		}, []string{"result"}),
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Work items and notifications a subscriber could not take.",
		}, []string{"topic"}),
	}
	registry.MustRegister(c.imports, c.importDuration, c.reconciled, c.queueDepth, c.uploads, c.droppedEvents)
	return c
}

func (c *Collector) ImportFinished(outcome string, elapsed time.Duration) {
	c.imports.WithLabelValues(outcome).Inc()
	c.importDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (c *Collector) Reconciled(s ingest.Stats) {
	add := func(entity, action string, n int) {
		if n > 0 {
			c.reconciled.WithLabelValues(entity, action).Add(float64(n))
		}
	}
	add("component", "created", s.ComponentsCreated)
	add("component", "updated", s.ComponentsUpdated)
	add("component", "unchanged", s.ComponentsUnchanged)
	add("component", "deleted", s.ComponentsDeleted)
	add("service", "created", s.ServicesCreated)
	add("service", "updated", s.ServicesUpdated)
	add("service", "unchanged", s.ServicesUnchanged)
	add("service", "deleted", s.ServicesDeleted)
}

// SetQueueDepth records the number of queued uploads.
func (c *Collector) SetQueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// UploadReceived counts an upload request; result is accepted, rejected,
// throttled or queue_full.
func (c *Collector) UploadReceived(result string) {
	c.uploads.WithLabelValues(result).Inc()
}

func (c *Collector) EventDropped(topic string) {
	c.droppedEvents.WithLabelValues(topic).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
