package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records quick-search and watcher activity in Prometheus collectors.
type Metrics struct {
	outcomes    *prometheus.CounterVec
	duration    prometheus.Histogram
	predictions *prometheus.CounterVec
	catalogLots prometheus.Gauge
	alerts      *prometheus.CounterVec
	gatherer    prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
// Collectors already registered on reg are reused.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quicksearch_outcomes_total",
		Help: "Quick searches by terminal outcome",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quicksearch_duration_seconds",
		Help:    "Wall time of a quick search including every prediction request",
		Buckets: prometheus.DefBuckets,
	})
	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_fetches_total",
		Help: "Per-lot prediction requests by result",
	}, []string{"result"})
	catalogLots := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_lots",
		Help: "Number of lots in the current catalog snapshot",
	})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_alerts_total",
		Help: "Lot availability alerts by delivery result",
	}, []string{"delivered"})

	var err error
	if outcomes, err = register(reg, outcomes); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if predictions, err = register(reg, predictions); err != nil {
		return nil, err
	}
	if catalogLots, err = register(reg, catalogLots); err != nil {
		return nil, err
	}
	if alerts, err = register(reg, alerts); err != nil {
		return nil, err
	}

	return &Metrics{
		outcomes:    outcomes,
		duration:    duration,
		predictions: predictions,
		catalogLots: catalogLots,
		alerts:      alerts,
		gatherer:    reg,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(C), nil
		}
		return c, err
	}
	return c, nil
}

// SearchCompleted counts one quick search and observes its duration.
func (m *Metrics) SearchCompleted(outcome string, elapsed time.Duration) {
	m.outcomes.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) PredictionFetched(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.predictions.WithLabelValues(result).Inc()
}

// CatalogSize sets the lot gauge after a catalog refresh.
func (m *Metrics) CatalogSize(n int) {
	m.catalogLots.Set(float64(n))
}

func (m *Metrics) AlertSent(delivered bool) {
	m.alerts.WithLabelValues(strconv.FormatBool(delivered)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
