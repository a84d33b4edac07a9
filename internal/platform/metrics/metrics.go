package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AuditRuns counts completed audit runs by overall result.
	AuditRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_runs_total",
			Help: "Completed audit runs by overall result.",
		},
		[]string{"result"},
	)

	// AuditFindings counts findings by check and severity.
	AuditFindings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_findings_total",
			Help: "Audit findings by check and severity.",
		},
		[]string{"check", "severity"},
	)

	// AuditCheckFailures counts per-check query failures that were contained
	// by the no-data-no-penalty policy. Operational visibility for what the
	// report contract deliberately hides.
	AuditCheckFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_check_failures_total",
			Help: "Audit check query failures contained by safe defaults.",
		},
		[]string{"check"},
	)

	// ERPCalls counts external system calls by family, operation and status.
	ERPCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_calls_total",
			Help: "External ERP calls by family, operation and status.",
		},
		[]string{"family", "operation", "status"},
	)

	// ERPCallDuration observes external call latencies in seconds.
	ERPCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erp_call_duration_seconds",
			Help:    "External ERP call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"family", "operation"},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(AuditRuns, AuditFindings, AuditCheckFailures, ERPCalls, ERPCallDuration)
	})
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
