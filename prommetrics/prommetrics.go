// Package prommetrics exports lexigo operation metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, _ := prommetrics.New(reg, "myapp")
//	db, _ := lexigo.Open[Doc](lexigo.Local("./data"), lexigo.WithMetricsCollector(mc))
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/lexigo"
)

// Collector implements lexigo.MetricsCollector on Prometheus collectors.
type Collector struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	SearchResults     prometheus.Histogram
	BatchItemsTotal   *prometheus.CounterVec
	LookupsTotal      *prometheus.CounterVec
}

var _ lexigo.MetricsCollector = (*Collector)(nil)

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lexigo",
				Name:      "operations_total",
				Help:      "Total operations by kind and status (ok, error).",
			},
			[]string{"op", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "lexigo",
				Name:      "operation_duration_seconds",
				Help:      "Operation latency in seconds.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"op"},
		),
		SearchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "lexigo",
				Name:      "search_results_count",
				Help:      "Number of results returned per search.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		BatchItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lexigo",
				Name:      "batch_items_total",
				Help:      "Records submitted through batch adds by status.",
			},
			[]string{"status"},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lexigo",
				Name:      "lookups_total",
				Help:      "Id lookups by result (hit, miss, error).",
			},
			[]string{"result"},
		),
	}

	for _, col := range []prometheus.Collector{
		c.OperationsTotal, c.OperationDuration, c.SearchResults, c.BatchItemsTotal, c.LookupsTotal,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.OperationsTotal.WithLabelValues(op, status).Inc()
	c.OperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordAdd implements lexigo.MetricsCollector.
func (c *Collector) RecordAdd(d time.Duration, err error) { c.observe("add", d, err) }

// RecordBatchAdd implements lexigo.MetricsCollector.
func (c *Collector) RecordBatchAdd(count, failed int, d time.Duration) {
	c.observe("batch_add", d, nil)
	c.BatchItemsTotal.WithLabelValues("ok").Add(float64(count - failed))
	c.BatchItemsTotal.WithLabelValues("error").Add(float64(failed))
}

// RecordUpsert implements lexigo.MetricsCollector.
func (c *Collector) RecordUpsert(d time.Duration, err error) { c.observe("upsert", d, err) }

// RecordDelete implements lexigo.MetricsCollector.
func (c *Collector) RecordDelete(d time.Duration, err error) { c.observe("delete", d, err) }

// RecordSearch implements lexigo.MetricsCollector.
func (c *Collector) RecordSearch(results int, d time.Duration, err error) {
	c.observe("search", d, err)
	if err == nil {
		c.SearchResults.Observe(float64(results))
	}
}

// RecordGet implements lexigo.MetricsCollector.
func (c *Collector) RecordGet(found bool, d time.Duration, err error) {
	c.observe("get", d, err)
	switch {
	case err != nil:
		c.LookupsTotal.WithLabelValues("error").Inc()
	case found:
		c.LookupsTotal.WithLabelValues("hit").Inc()
	default:
		c.LookupsTotal.WithLabelValues("miss").Inc()
	}
}
