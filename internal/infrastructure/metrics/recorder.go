// Package metrics exposes ledger and reconciliation activity as Prometheus series.
package metrics

import (
	"strconv"
	"time"

	appinvoicing "github.com/erp/ledger/internal/application/invoicing"
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

// Recorder implements the metrics interfaces of the application services
type Recorder struct {
	postings       *prometheus.CounterVec
	postedLines    *prometheus.CounterVec
	exports        *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	payments       *prometheus.CounterVec
	recomputes     *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewRecorder registers the ledger series on reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		postings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_total",
			Help:      "Journal postings by journal and outcome",
		}, []string{"journal", "outcome"}),
		postedLines: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posted_lines_total",
			Help:      "Journal entry lines written",
		}, []string{"journal"}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Regulatory exports by format and outcome",
		}, []string{"format", "outcome"}),
		exportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent producing an export",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Recorded payments by kind and outcome",
		}, []string{"kind", "outcome"}),
		recomputes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoice_recompute_duration_seconds",
			Help:      "Invoice payment recompute latency by outcome",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"outcome"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObservePosting counts one posting attempt and the lines it wrote
func (r *Recorder) ObservePosting(journal string, lines int, err error) {
	r.postings.WithLabelValues(journal, outcome(err)).Inc()
	if err == nil {
		r.postedLines.WithLabelValues(journal).Add(float64(lines))
	}
}

// ObserveExport counts one export and its duration
func (r *Recorder) ObserveExport(format string, elapsed time.Duration, err error) {
	r.exports.WithLabelValues(format, outcome(err)).Inc()
	r.exportDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// ObservePayment counts a direct or lump-sum payment
func (r *Recorder) ObservePayment(kind string, err error) {
	r.payments.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveRecompute records one invoice recompute
func (r *Recorder) ObserveRecompute(result string, elapsed time.Duration) {
	r.recomputes.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request
func (r *Recorder) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// outcome labels an error by its domain kind to keep label cardinality bounded
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := shared.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

var (
	_ appledger.Metrics    = (*Recorder)(nil)
	_ appinvoicing.Metrics = (*Recorder)(nil)
)
