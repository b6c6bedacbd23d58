// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_upstream_requests_total",
		Help: "Outbound requests by upstream and outcome",
	}, []string{"upstream", "outcome"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_upstream_latency_seconds",
		Help:    "Outbound request latency by upstream",
		Buckets: prometheus.DefBuckets,
	}, []string{"upstream"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"cache", "result"})

	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_purchase_request_transitions_total",
		Help: "Purchase request lifecycle transitions by action",
	}, []string{"action"})

	ImportedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_imported_records_total",
		Help: "Records written by the openFDA importer by target and outcome",
	}, []string{"target", "outcome"})

	AuditWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_audit_writes_total",
		Help: "Audit record persistence attempts by result",
	}, []string{"result"})
)

func ObserveUpstream(upstream, outcome string, start time.Time) {
	UpstreamRequests.WithLabelValues(upstream, outcome).Inc()
	UpstreamLatency.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
}

func ObserveCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

func ObserveImport(target string, written, failed int) {
	if written > 0 {
		ImportedRecords.WithLabelValues(target, "written").Add(float64(written))
	}
	if failed > 0 {
		ImportedRecords.WithLabelValues(target, "failed").Add(float64(failed))
	}
}
