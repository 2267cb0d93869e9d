// Package metrics exposes console counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the console's Prometheus metrics. It satisfies the
// Metrics interfaces of the sample, build and wizard packages.
type Collector struct {
	registry *prometheus.Registry

	buildsTotal      *prometheus.CounterVec
	buildDuration    prometheus.Histogram
	buildsRunning    prometheus.Gauge
	importsTotal     *prometheus.CounterVec
	importedSamples  prometheus.Counter
	uploadsTotal     prometheus.Counter
	annotationsSaved prometheus.Counter
	wizardSteps      *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	toolCalls        *prometheus.CounterVec
}

// New creates a Collector registered on its own registry.
func New() (*Collector, error) {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a Collector and registers it on registry.
func NewWithRegistry(registry *prometheus.Registry) (*Collector, error) {
	c := &Collector{
		registry: registry,
		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoiforge_builds_total",
			Help: "Build runs by terminal status",
		}, []string{"status"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aoiforge_build_duration_seconds",
			Help:    "Wall time from build start to finish",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		buildsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aoiforge_builds_running",
			Help: "Builds currently emitting logs",
		}),
		importsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoiforge_imports_total",
			Help: "Dataset imports by status",
		}, []string{"status"}),
		importedSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoiforge_imported_samples_total",
			Help: "Samples added by imports",
		}),
		uploadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoiforge_uploads_total",
			Help: "Images uploaded",
		}),
		annotationsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoiforge_annotations_saved_total",
			Help: "Annotations committed from the editor",
		}),
		wizardSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoiforge_wizard_steps_entered_total",
			Help: "Wizard step entries by step",
		}, []string{"step"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aoiforge_console_sessions",
			Help: "Open console sessions",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoiforge_tool_calls_total",
			Help: "Tool calls by tool and outcome",
		}, []string{"tool", "outcome"}),
	}
	if err := registry.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.buildsTotal.Describe(ch)
	c.buildDuration.Describe(ch)
	c.buildsRunning.Describe(ch)
	c.importsTotal.Describe(ch)
	c.importedSamples.Describe(ch)
	c.uploadsTotal.Describe(ch)
	c.annotationsSaved.Describe(ch)
	c.wizardSteps.Describe(ch)
	c.activeSessions.Describe(ch)
	c.toolCalls.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.buildsTotal.Collect(ch)
	c.buildDuration.Collect(ch)
	c.buildsRunning.Collect(ch)
	c.importsTotal.Collect(ch)
	c.importedSamples.Collect(ch)
	c.uploadsTotal.Collect(ch)
	c.annotationsSaved.Collect(ch)
	c.wizardSteps.Collect(ch)
	c.activeSessions.Collect(ch)
	c.toolCalls.Collect(ch)
}

// Registry returns the registry the collector is registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) BuildStarted() {
	c.buildsRunning.Inc()
}

func (c *Collector) BuildFinished(elapsed time.Duration) {
	c.buildsRunning.Dec()
	c.buildsTotal.WithLabelValues("finished").Inc()
	c.buildDuration.Observe(elapsed.Seconds())
}

func (c *Collector) BuildFailed() {
	c.buildsRunning.Dec()
	c.buildsTotal.WithLabelValues("failed").Inc()
}

// BuildAbandoned records a running build torn down before it finished.
func (c *Collector) BuildAbandoned() {
	c.buildsRunning.Dec()
	c.buildsTotal.WithLabelValues("abandoned").Inc()
}

func (c *Collector) ImportCompleted(samples int) {
	c.importsTotal.WithLabelValues("completed").Inc()
	c.importedSamples.Add(float64(samples))
}

func (c *Collector) ImportFailed() {
	c.importsTotal.WithLabelValues("failed").Inc()
}

func (c *Collector) SampleUploaded() {
	c.uploadsTotal.Inc()
}

func (c *Collector) AnnotationSaved() {
	c.annotationsSaved.Inc()
}

func (c *Collector) StepEntered(step string) {
	c.wizardSteps.WithLabelValues(step).Inc()
}

// SessionOpened and SessionClosed track the console session gauge.
func (c *Collector) SessionOpened() { c.activeSessions.Inc() }

func (c *Collector) SessionClosed() { c.activeSessions.Dec() }

// ToolCalled records one tool invocation.
func (c *Collector) ToolCalled(tool string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	c.toolCalls.WithLabelValues(tool, outcome).Inc()
}
