// Package metrics expone métricas Prometheus de las operaciones de inventario.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.Recorder = (*Recorder)(nil)

// Recorder implementa inventory.Recorder sobre un registro propio (no el global).
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retries    *prometheus.CounterVec
	replays    *prometheus.CounterVec
}

// NewRecorder crea el registro con las métricas de inventario y las del runtime de Go.
func NewRecorder(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_operations_total",
			Help:      "Operaciones de escritura de inventario por resultado.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inventory_operation_duration_seconds",
			Help:      "Duración de las operaciones de escritura de inventario.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_retries_total",
			Help:      "Reintentos por conflicto de concurrencia.",
		}, []string{"operation"}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_replays_total",
			Help:      "Operaciones repetidas resueltas por idempotencia.",
		}, []string{"operation"}),
	}
	r.registry.MustRegister(
		r.operations, r.duration, r.retries, r.replays,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry devuelve el registro para exponerlo en /metrics.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveOperation cuenta la operación y registra su duración.
func (r *Recorder) ObserveOperation(op, outcome string, elapsed time.Duration) {
	r.operations.WithLabelValues(op, outcome).Inc()
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// IncRetry cuenta un reintento.
func (r *Recorder) IncRetry(op string) { r.retries.WithLabelValues(op).Inc() }

// IncReplay cuenta una operación repetida.
func (r *Recorder) IncReplay(op string) { r.replays.WithLabelValues(op).Inc() }
