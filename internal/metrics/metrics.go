package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the counters exported by the store, manager and view-model.
type Metrics struct {
	// Store
	Fetches       *prometheus.CounterVec
	Saves         *prometheus.CounterVec
	SaveFailures  prometheus.Counter
	SaveDuration  prometheus.Histogram
	Notifications prometheus.Counter

	// Manager
	BatchUpdates *prometheus.CounterVec
	BatchTouched prometheus.Counter

	// View-model
	CachedTasks     prometheus.Gauge
	Reconciliations prometheus.Counter
}

// Context labels for Fetches and Saves.
const (
	ContextMain       = "main"
	ContextBackground = "background"
)

// New registers the metrics on reg. A nil reg gets a private registry so
// callers that don't care about export can pass nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_store_fetches_total",
				Help: "Total number of task queries run through a store context",
			},
			[]string{"context"},
		),
		Saves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_store_saves_total",
				Help: "Total number of saves that carried changes",
			},
			[]string{"context"},
		),
		SaveFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todo_store_save_failures_total",
				Help: "Total number of saves rejected by the backing file",
			},
		),
		SaveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "todo_store_save_duration_seconds",
				Help:    "Time spent writing a save to the backing file",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		Notifications: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todo_store_notifications_total",
				Help: "Total number of change notifications emitted",
			},
		),
		BatchUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_manager_batch_updates_total",
				Help: "Total number of batch updates by result",
			},
			[]string{"result"},
		),
		BatchTouched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todo_manager_batch_tasks_total",
				Help: "Total number of tasks modified by batch updates",
			},
		),
		CachedTasks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "todo_viewmodel_cached_tasks",
				Help: "Number of tasks held in the view-model cache",
			},
		),
		Reconciliations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todo_viewmodel_reconciliations_total",
				Help: "Total number of change events applied to the view-model cache",
			},
		),
	}
}
