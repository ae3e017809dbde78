package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ProductsTotal     prometheus.Counter
	ListingPagesTotal *prometheus.CounterVec
	DuplicateLinks    prometheus.Counter
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketcrawl_requests_total",
			Help: "Total HTTP requests issued by the crawler, by page kind.",
		},
		[]string{"kind"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketcrawl_request_duration_seconds",
			Help:    "HTTP request latency for crawler requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketcrawl_products_total",
			Help: "Total number of product records sent to the sink.",
		},
	)
	listingPages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketcrawl_listing_pages_total",
			Help: "Listing pages parsed, by category.",
		},
		[]string{"category"},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketcrawl_duplicate_links_total",
			Help: "Product links skipped because an earlier listing already discovered them.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketcrawl_retries_total",
			Help: "Total number of retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketcrawl_errors_total",
			Help: "Total number of request errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, products, listingPages, duplicates, retries, errorsTotal)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		ProductsTotal:     products,
		ListingPagesTotal: listingPages,
		DuplicateLinks:    duplicates,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
	}
}

// IncRequest increments the requests counter for a page kind.
func (m *Metrics) IncRequest(kind string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(kind).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncProducts increments the emitted products counter.
func (m *Metrics) IncProducts() {
	if m == nil {
		return
	}
	m.ProductsTotal.Inc()
}

// IncListingPage counts a parsed listing page for category.
func (m *Metrics) IncListingPage(category string) {
	if m == nil {
		return
	}
	m.ListingPagesTotal.WithLabelValues(category).Inc()
}

// IncDuplicate counts a skipped, already discovered product link.
func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.DuplicateLinks.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
