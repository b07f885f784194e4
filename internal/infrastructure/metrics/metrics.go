package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Pipeline metrics
	ReportsCalculated prometheus.Counter
	ReportErrors      prometheus.Counter
	ReportDuration    prometheus.Histogram
	RecordsProcessed  prometheus.Counter
	DataErrors        prometheus.Counter
	UnmatchedRuns     prometheus.Counter
	TransferMismatches prometheus.Counter

	// Valuation metrics
	PriceLookups *prometheus.CounterVec
	PriceErrors  prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ReportsCalculated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cryptotax_reports_calculated_total",
			Help: "Total number of tax reports calculated",
		}),
		ReportErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cryptotax_report_errors_total",
			Help: "Total number of report calculations that failed",
		}),
		ReportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cryptotax_report_duration_seconds",
			Help:    "Duration of report calculations",
			Buckets: prometheus.DefBuckets,
		}),
		RecordsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cryptotax_records_processed_total",
			Help: "Total number of ledger records processed",
		}),
		DataErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cryptotax_data_errors_total",
			Help: "Total number of records excluded for data errors",
		}),
		UnmatchedRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cryptotax_unmatched_runs_total",
			Help: "Total number of runs with unmatched disposals",
		}),
		TransferMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cryptotax_transfer_mismatch_runs_total",
			Help: "Total number of runs with withdrawal/deposit mismatches",
		}),
		PriceLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptotax_price_lookups_total",
				Help: "Total number of price lookups by source",
			},
			[]string{"source"},
		),
		PriceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cryptotax_price_errors_total",
			Help: "Total number of failed price lookups",
		}),
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptotax_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptotax_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveReport records the outcome of one pipeline run.
func (m *Metrics) ObserveReport(records, dataErrors int, unmatched, mismatch bool, seconds float64) {
	m.ReportsCalculated.Inc()
	m.ReportDuration.Observe(seconds)
	m.RecordsProcessed.Add(float64(records))
	m.DataErrors.Add(float64(dataErrors))
	if unmatched {
		m.UnmatchedRuns.Inc()
	}
	if mismatch {
		m.TransferMismatches.Inc()
	}
}
