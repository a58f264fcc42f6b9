// Package metrics exposes pool status as Prometheus gauges.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patchwell/poolhouse/service"
)

const (
	totalGauge   = "poolhouse_connections_total"
	activeGauge  = "poolhouse_connections_active"
	idleGauge    = "poolhouse_connections_idle"
	waitingGauge = "poolhouse_waiters"

	poolLabel = "pool"
)

// Exporter object contains the gauges for every registered pool.
type Exporter struct {
	service  *service.PoolService
	registry *prometheus.Registry
	total    *prometheus.GaugeVec
	active   *prometheus.GaugeVec
	idle     *prometheus.GaugeVec
	waiting  *prometheus.GaugeVec
}

// NewExporter registers the pool gauges against a fresh registry.
func NewExporter(svc *service.PoolService) *Exporter {

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	labels := []string{poolLabel}

	return &Exporter{
		service:  svc,
		registry: registry,
		total: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: totalGauge,
			Help: "Total pooled connections",
		}, labels),
		active: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: activeGauge,
			Help: "Pooled connections currently checked out",
		}, labels),
		idle: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: idleGauge,
			Help: "Pooled connections currently idle",
		}, labels),
		waiting: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: waitingGauge,
			Help: "Callers queued for a connection",
		}, labels),
	}
}

// Refresh re-reads every pool's status into the gauges.
func (e *Exporter) Refresh() {
	for name, status := range e.service.Status() {
		e.total.WithLabelValues(name).Set(float64(status.Total))
		e.active.WithLabelValues(name).Set(float64(status.Active))
		e.idle.WithLabelValues(name).Set(float64(status.Idle))
		e.waiting.WithLabelValues(name).Set(float64(status.Waiting))
	}
}

// Gather exposes the underlying registry for scraping or testing.
func (e *Exporter) Gather() prometheus.Gatherer {
	return e.registry
}

// HandleRequest will handle the request after refreshing the gauges.
func (e *Exporter) HandleRequest(w http.ResponseWriter, r *http.Request) {
	e.Refresh()
	promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
