package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl engine.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      prometheus.Counter
	BooksTotal      prometheus.Counter
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Total listing pages fetched and parsed successfully.",
		},
	)
	books := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_books_total",
			Help: "Total book records appended to the manifest.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_retries_total",
			Help: "Total backoff retries across all operations.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Total permanent failures by error category.",
		},
		[]string{"category"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_request_duration_seconds",
			Help:    "HTTP request latency for page fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(pages, books, retries, errorsTotal, requestDuration)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		BooksTotal:      books,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
		RequestDuration: requestDuration,
	}
}

// IncPages increments the listing pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// IncBooks increments the saved books counter.
func (m *Metrics) IncBooks() {
	if m == nil {
		return
	}
	m.BooksTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a category label.
func (m *Metrics) IncError(category string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(category).Inc()
}

// ObserveDuration records one HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}
