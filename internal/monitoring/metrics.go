package monitoring

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for a crawl. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	PagesTotal     *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	RecordsTotal   prometheus.Counter
	FetchDuration  prometheus.Histogram
	LastRunRecords prometheus.Gauge
}

// NewMetrics registers the crawl metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		PagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookscraper_pages_total",
			Help: "The total number of listing pages requested",
		}, []string{"status"}), // success, failure
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookscraper_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'fetch', 'parse', 'sink'
		RecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookscraper_records_total",
			Help: "The total number of records emitted to the sink",
		}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookscraper_fetch_duration_seconds",
			Help:    "Duration of page fetches.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastRunRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bookscraper_last_run_records",
			Help: "Number of records collected by the last finished run.",
		}),
	}
}

// ObserveFetch records the outcome and duration of one page fetch.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
	if err != nil {
		m.PagesTotal.WithLabelValues("failure").Inc()
		return
	}
	m.PagesTotal.WithLabelValues("success").Inc()
}

// IncRecords counts one emitted record.
func (m *Metrics) IncRecords() {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
}

// IncErrors counts one error of the given type.
func (m *Metrics) IncErrors(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetLastRunRecords stores the record count of a finished run.
func (m *Metrics) SetLastRunRecords(n int) {
	if m == nil {
		return
	}
	m.LastRunRecords.Set(float64(n))
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return errors.New("metrics not initialised")
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
